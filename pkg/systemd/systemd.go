// Package systemd provides the narrow view of the service manager that the
// guard and the condition checks need: unit active-state queries, the
// per-target block indicator, and configuration reloads.
package systemd

import (
	"context"
	"fmt"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
)

// Manager is the standard interface to the service manager. Implementations
// must answer queries live rather than from a cache, because external actors
// (including an earlier run of this daemon) may change state between calls.
type Manager interface {
	// UnitActive reports whether the named unit is currently active.
	UnitActive(name string) (bool, error)
	// BlockIndicator reports whether the target currently refuses manual
	// starts, which is how an installed guard shows up in the manager.
	BlockIndicator(target string) (bool, error)
	// Reload makes the manager re-read its unit configuration so that
	// freshly written or removed drop-ins take effect.
	Reload() error
}

// Compile-time check to ensure the type implements the interface
var _ Manager = (*DBusManager)(nil)

// DBusManager talks to systemd over the system bus.
type DBusManager struct {
	conn *sdbus.Conn
}

// NewDBusManager connects to the system bus. The caller needs the privilege
// to issue Reload; queries work unprivileged.
func NewDBusManager() (*DBusManager, error) {
	conn, err := sdbus.NewSystemConnectionContext(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error connecting to the system bus: %v", err)
	}
	return &DBusManager{conn: conn}, nil
}

// UnitActive queries the unit's ActiveState property.
func (m *DBusManager) UnitActive(name string) (bool, error) {
	prop, err := m.conn.GetUnitPropertyContext(context.Background(), name, "ActiveState")
	if err != nil {
		return false, fmt.Errorf("error querying ActiveState of %s: %v", name, err)
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return false, fmt.Errorf("unexpected ActiveState type for %s: %v", name, prop.Value)
	}
	return state == "active", nil
}

// BlockIndicator queries the target's RefuseManualStart property, the
// directive our drop-in sets.
func (m *DBusManager) BlockIndicator(target string) (bool, error) {
	prop, err := m.conn.GetUnitPropertyContext(context.Background(), target, "RefuseManualStart")
	if err != nil {
		return false, fmt.Errorf("error querying RefuseManualStart of %s: %v", target, err)
	}
	refuse, ok := prop.Value.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected RefuseManualStart type for %s: %v", target, prop.Value)
	}
	return refuse, nil
}

// Reload issues a daemon-reload.
func (m *DBusManager) Reload() error {
	if err := m.conn.ReloadContext(context.Background()); err != nil {
		return fmt.Errorf("error reloading the service manager: %v", err)
	}
	return nil
}

// Close releases the bus connection.
func (m *DBusManager) Close() {
	m.conn.Close()
}
