package checks

import (
	"errors"
	"testing"
)

type fakeManager struct {
	active map[string]bool
	err    error
}

func (f *fakeManager) UnitActive(name string) (bool, error) {
	return f.active[name], f.err
}

func (f *fakeManager) BlockIndicator(target string) (bool, error) {
	return false, nil
}

func (f *fakeManager) Reload() error { return nil }

func Test_activeUnitCheck(t *testing.T) {
	mgr := &fakeManager{active: map[string]bool{"backup.service": true}}

	tests := []struct {
		name    string
		unit    string
		mgr     *fakeManager
		want    bool
		wantErr bool
	}{
		{
			name: "Ensure an active unit fails the check",
			unit: "backup.service",
			mgr:  mgr,
			want: true,
		},
		{
			name: "Ensure an inactive unit passes the check",
			unit: "idle.service",
			mgr:  mgr,
			want: false,
		},
		{
			name:    "Ensure a manager error surfaces",
			unit:    "backup.service",
			mgr:     &fakeManager{err: errors.New("bus gone")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewActiveUnitCheck(tt.unit, tt.mgr).Failing()
			if (err != nil) != tt.wantErr {
				t.Errorf("Failing() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Failing() = %v, want %v", got, tt.want)
			}
		})
	}
}
