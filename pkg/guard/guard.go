// Package guard installs and removes the shutdown block for the protected
// targets. The block is a drop-in override marking a target as not directly
// startable, anchored in the service manager's runtime configuration so it
// survives this process dying.
package guard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/unit"
	log "github.com/sirupsen/logrus"

	"github.com/shutguard/shutguard/pkg/systemd"
)

// DropInName is the file each protected target gets under its override
// directory while the guard is installed.
const DropInName = "99-shutguard.conf"

// DefaultTargets are the shutdown-class targets protected when the operator
// does not name their own.
var DefaultTargets = []string{"poweroff.target", "reboot.target", "halt.target"}

// Controller owns the block/unblock primitive for each protected target.
// Every mutation queries the manager's live state first, never a cache, so
// repeated calls are safe under external interference. There is exactly one
// writer per target path, which keeps the signal handler free to release
// concurrently with an in-progress install.
type Controller struct {
	Targets     []string
	OverrideDir string

	mgr systemd.Manager
}

// New returns a controller for the given targets. overrideDir is the service
// manager's runtime override area, normally /run/systemd/system.
func New(mgr systemd.Manager, targets []string, overrideDir string) *Controller {
	return &Controller{
		Targets:     targets,
		OverrideDir: overrideDir,
		mgr:         mgr,
	}
}

// Set installs (enforce=true) or removes (enforce=false) the block for every
// protected target, idempotently, and reports whether any target's state
// actually changed. When at least one did, a single reload is issued so the
// manager notices the new configuration; a reload failure is logged but
// non-fatal, since the drop-ins are already in place (or gone) regardless.
func (g *Controller) Set(enforce bool) bool {
	changed := false
	for _, target := range g.Targets {
		if enforce {
			changed = g.block(target) || changed
		} else {
			changed = g.unblock(target) || changed
		}
	}
	if changed {
		if err := g.mgr.Reload(); err != nil {
			log.Errorf("Error reloading service manager after guard change: %v", err)
		}
	}
	return changed
}

func (g *Controller) block(target string) bool {
	blocked, err := g.mgr.BlockIndicator(target)
	if err != nil {
		log.WithField("target", target).Errorf("Error querying block state: %v", err)
		return false
	}
	if blocked {
		return false
	}

	dir := filepath.Join(g.OverrideDir, target+".d")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithField("target", target).Errorf("Error creating override directory: %v", err)
		return false
	}
	content, err := dropInContent()
	if err != nil {
		log.WithField("target", target).Errorf("Error serializing drop-in: %v", err)
		return false
	}
	if err := os.WriteFile(filepath.Join(dir, DropInName), content, 0o644); err != nil { // #nosec G306 -- unit files are world readable
		log.WithField("target", target).Errorf("Error writing drop-in: %v", err)
		return false
	}
	log.WithField("target", target).Info("Guard installed, target blocked")
	return true
}

func (g *Controller) unblock(target string) bool {
	blocked, err := g.mgr.BlockIndicator(target)
	if err != nil {
		log.WithField("target", target).Errorf("Error querying block state: %v", err)
		return false
	}
	if !blocked {
		return false
	}

	dir := filepath.Join(g.OverrideDir, target+".d")
	if err := os.Remove(filepath.Join(dir, DropInName)); err != nil {
		log.WithField("target", target).Errorf("Error removing drop-in: %v", err)
		return false
	}
	// The directory may hold drop-ins from other tools.
	if err := os.Remove(dir); err != nil {
		log.WithField("target", target).Debugf("Leaving override directory in place: %v", err)
	}
	log.WithField("target", target).Info("Guard released, target unblocked")
	return true
}

// dropInContent serializes the single directive that makes a target
// requestable only as a dependency, never startable directly.
func dropInContent() ([]byte, error) {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "RefuseManualStart", "yes"),
	}
	content, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return nil, fmt.Errorf("error serializing unit options: %v", err)
	}
	return content, nil
}
