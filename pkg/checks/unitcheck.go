package checks

import (
	"fmt"

	"github.com/shutguard/shutguard/pkg/systemd"
)

// Compile-time check to ensure the type implements the interface
var _ Check = (*ActiveUnitCheck)(nil)

// ActiveUnitCheck fails while the named service-manager unit is active.
// The query goes to the manager on every evaluation; nothing is cached.
type ActiveUnitCheck struct {
	Unit string
	mgr  systemd.Manager
}

// NewActiveUnitCheck is the constructor for the active-unit check.
func NewActiveUnitCheck(unit string, mgr systemd.Manager) *ActiveUnitCheck {
	return &ActiveUnitCheck{Unit: unit, mgr: mgr}
}

// Kind returns KindActiveUnit.
func (c ActiveUnitCheck) Kind() Kind { return KindActiveUnit }

func (c ActiveUnitCheck) String() string {
	return fmt.Sprintf("active unit %s", c.Unit)
}

// Failing asks the manager for the unit's active state. A query error is
// returned to the engine, which counts it as a failed condition.
func (c ActiveUnitCheck) Failing() (bool, error) {
	active, err := c.mgr.UnitActive(c.Unit)
	if err != nil {
		return false, err
	}
	return active, nil
}
