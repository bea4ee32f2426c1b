// Package cli contains tools for command line parsing.
package cli

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

const (
	// EnvPrefix The environment variable prefix of all environment variables bound to our command line flags.
	EnvPrefix = "SHUTGUARD"
)

// RegexpValue is a flag.Value that stores a regexp and allow quick input validation
type RegexpValue struct {
	*regexp.Regexp
}

// String method returns the string representation of the regexp.
// It was necessary to override the default String method to avoid a panic
func (rev *RegexpValue) String() string {
	if rev.Regexp == nil {
		return ""
	}
	return rev.Regexp.String()
}

// Set method sets the regexp from a string.
func (rev *RegexpValue) Set(s string) error {
	value, err := regexp.Compile(s)
	if err != nil {
		return err
	}
	rev.Regexp = value
	return nil
}

// Type method returns the type of the flag as a string
func (rev *RegexpValue) Type() string {
	return "regexp"
}

// LoadFromEnv attempts to load environment variables corresponding to flags.
// It looks for an environment variable with the uppercase version of the flag name (prefixed by EnvPrefix).
func LoadFromEnv() {
	flag.VisitAll(func(f *flag.Flag) {
		envVarName := fmt.Sprintf("%s_%s", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")))

		if envValue, exists := os.LookupEnv(envVarName); exists {
			switch f.Value.Type() {
			case "int":
				if parsedVal, err := strconv.Atoi(envValue); err == nil {
					err := flag.Set(f.Name, strconv.Itoa(parsedVal))
					if err != nil {
						log.Fatalf("cannot set flag %s from env var named %s", f.Name, envVarName)
					} // Set int flag
				} else {
					log.Fatalf("Invalid value for env var named %s", envVarName)
				}
			case "string":
				err := flag.Set(f.Name, envValue)
				if err != nil {
					log.Fatalf("cannot set flag %s from env{%s}: %s", f.Name, envVarName, envValue)
				} // Set string flag
			case "bool":
				if parsedVal, err := strconv.ParseBool(envValue); err == nil {
					err := flag.Set(f.Name, strconv.FormatBool(parsedVal))
					if err != nil {
						log.Fatalf("cannot set flag %s from env{%s}: %s", f.Name, envVarName, envValue)
					} // Set boolean flag
				} else {
					log.Fatalf("Invalid value for %s: %s", envVarName, envValue)
				}
			case "duration":
				// Set duration from the environment variable (e.g., "1h30m")
				if _, err := time.ParseDuration(envValue); err == nil {
					err = flag.Set(f.Name, envValue)
					if err != nil {
						log.Fatalf("cannot set flag %s from env{%s}: %s", f.Name, envVarName, envValue)
					}
				} else {
					log.Fatalf("Invalid duration for %s: %s", envVarName, envValue)
				}
			case "regexp":
				// For regexp, set it from the environment variable
				err := flag.Set(f.Name, envValue)
				if err != nil {
					log.Fatalf("cannot set flag %s from env{%s}: %s", f.Name, envVarName, envValue)
				}
			case "stringArray":
				// For stringArray, each Set call appends one element; values
				// from the environment are split on newlines so that check
				// commands may contain commas.
				for _, v := range strings.Split(envValue, "\n") {
					if v == "" {
						continue
					}
					err := flag.Set(f.Name, v)
					if err != nil {
						log.Fatalf("cannot set flag %s from env{%s}: %s", f.Name, envVarName, envValue)
					}
				}
			case "stringSlice":
				// For stringSlice, split the environment variable by commas and set it
				err := flag.Set(f.Name, envValue)
				if err != nil {
					log.Fatalf("cannot set flag %s from env{%s}: %s", f.Name, envVarName, envValue)
				}
			default:
				log.Errorf("Unsupported flag type for %s", f.Name)
			}
		}
	})

}
