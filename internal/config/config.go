// Package config loads an optional configuration file and overlays its
// values onto command line flags, so long check lists can be kept in a file
// instead of a service unit's ExecStart line.
package config

import (
	"fmt"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load reads the file at path (format detected from the extension: yaml,
// toml, json) and applies each key to the flag of the same name. Flags set
// explicitly on the command line win over file values, which win over flag
// defaults. An empty path is a no-op.
func Load(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %v", path, err)
	}

	var applyErr error
	flag.VisitAll(func(f *flag.Flag) {
		if applyErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		switch f.Value.Type() {
		case "stringArray", "stringSlice":
			for _, item := range v.GetStringSlice(f.Name) {
				if err := flag.Set(f.Name, item); err != nil {
					applyErr = fmt.Errorf("error applying config key %s: %v", f.Name, err)
					return
				}
			}
		default:
			if err := flag.Set(f.Name, v.GetString(f.Name)); err != nil {
				applyErr = fmt.Errorf("error applying config key %s: %v", f.Name, err)
			}
		}
	})
	return applyErr
}
