package guard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

// fakeManager reports block state from a map the test controls, so drift
// between the manager's view and the filesystem can be simulated.
type fakeManager struct {
	blocked   map[string]bool
	reloads   int
	reloadErr error
}

func (f *fakeManager) UnitActive(name string) (bool, error) { return false, nil }

func (f *fakeManager) BlockIndicator(target string) (bool, error) {
	return f.blocked[target], nil
}

func (f *fakeManager) Reload() error {
	f.reloads++
	return f.reloadErr
}

func (f *fakeManager) markAll(targets []string, blocked bool) {
	for _, t := range targets {
		f.blocked[t] = blocked
	}
}

func newTestController(t *testing.T) (*Controller, *fakeManager) {
	t.Helper()
	mgr := &fakeManager{blocked: map[string]bool{}}
	return New(mgr, DefaultTargets, t.TempDir()), mgr
}

func dropInPath(g *Controller, target string) string {
	return filepath.Join(g.OverrideDir, target+".d", DropInName)
}

func TestSetInstallsDropInsAndReloadsOnce(t *testing.T) {
	g, mgr := newTestController(t)

	changed := g.Set(true)
	assert.Equal(t, changed, true)
	assert.Equal(t, mgr.reloads, 1)

	for _, target := range g.Targets {
		content, err := os.ReadFile(dropInPath(g, target))
		assert.NilError(t, err)
		assert.Assert(t, strings.Contains(string(content), "[Unit]"))
		assert.Assert(t, strings.Contains(string(content), "RefuseManualStart=yes"))
	}
}

func TestSetIsIdempotent(t *testing.T) {
	g, mgr := newTestController(t)

	g.Set(true)
	// The manager has picked up the drop-ins.
	mgr.markAll(g.Targets, true)

	changed := g.Set(true)
	assert.Equal(t, changed, false)
	assert.Equal(t, mgr.reloads, 1) // no second reload

	g.Set(false)
	mgr.markAll(g.Targets, false)

	changed = g.Set(false)
	assert.Equal(t, changed, false)
	assert.Equal(t, mgr.reloads, 2)
}

func TestSetRemovesDropIns(t *testing.T) {
	g, mgr := newTestController(t)

	g.Set(true)
	mgr.markAll(g.Targets, true)

	changed := g.Set(false)
	assert.Equal(t, changed, true)
	assert.Equal(t, mgr.reloads, 2)

	for _, target := range g.Targets {
		_, err := os.Stat(dropInPath(g, target))
		assert.Assert(t, os.IsNotExist(err), "drop-in for %s should be gone", target)
	}
}

func TestReloadFailureIsNonFatal(t *testing.T) {
	g, mgr := newTestController(t)
	mgr.reloadErr = errors.New("manager is busy")

	changed := g.Set(true)
	assert.Equal(t, changed, true)

	// The drop-ins landed even though the reload failed.
	for _, target := range g.Targets {
		_, err := os.Stat(dropInPath(g, target))
		assert.NilError(t, err)
	}
}

func TestRemoveFailureIsNoChange(t *testing.T) {
	g, mgr := newTestController(t)
	// Manager claims blocked, but no drop-in exists to remove (external state).
	mgr.markAll(g.Targets, true)

	changed := g.Set(false)
	assert.Equal(t, changed, false)
	assert.Equal(t, mgr.reloads, 0)
}
