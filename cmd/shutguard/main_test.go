package main

import (
	"testing"
	"time"

	assert "gotest.tools/v3/assert"
)

type stubManager struct{}

func (stubManager) UnitActive(string) (bool, error)     { return false, nil }
func (stubManager) BlockIndicator(string) (bool, error) { return false, nil }
func (stubManager) Reload() error                       { return nil }

type recordingSetter struct {
	sets []bool
}

func (r *recordingSetter) Set(enforce bool) bool {
	r.sets = append(r.sets, enforce)
	return true
}

func Test_runOneShot(t *testing.T) {
	tests := []struct {
		name     string
		install  bool
		remove   bool
		wantDone bool
		wantSets []bool
	}{
		{
			name:     "Ensure install-guard installs and finishes",
			install:  true,
			wantDone: true,
			wantSets: []bool{true},
		},
		{
			name:     "Ensure remove-guard removes and finishes",
			remove:   true,
			wantDone: true,
			wantSets: []bool{false},
		},
		{
			name: "Ensure no one-shot mode leaves the guard untouched",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setter := &recordingSetter{}
			done := runOneShot(setter, tt.install, tt.remove)
			assert.Equal(t, done, tt.wantDone)
			assert.DeepEqual(t, setter.sets, tt.wantSets)
		})
	}
}

func Test_validateFlags(t *testing.T) {
	tests := []struct {
		name         string
		installGuard bool
		removeGuard  bool
		interval     time.Duration
		targets      []string
		wantErr      bool
	}{
		{
			name:     "Ensure the defaults validate",
			interval: time.Minute,
			targets:  []string{"poweroff.target"},
		},
		{
			name:         "Ensure the one-shot modes are mutually exclusive",
			installGuard: true,
			removeGuard:  true,
			interval:     time.Minute,
			targets:      []string{"poweroff.target"},
			wantErr:      true,
		},
		{
			name:     "Ensure a non-positive interval is rejected",
			interval: 0,
			targets:  []string{"poweroff.target"},
			wantErr:  true,
		},
		{
			name:     "Ensure an empty target list is rejected",
			interval: time.Minute,
			wantErr:  true,
		},
		{
			name:     "Ensure fractional-second intervals are accepted",
			interval: 500 * time.Millisecond,
			targets:  []string{"poweroff.target"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installGuard = tt.installGuard
			removeGuard = tt.removeGuard
			interval = tt.interval
			targets = tt.targets
			err := validateFlags()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_buildCheckSet(t *testing.T) {
	forbidFiles = []string{"/run/backup.pid"}
	requireFiles = []string{"/run/ready"}
	blockUnits = []string{"backup.service"}
	blockProcesses = []string{"rsync"}
	blockCmdlines = []string{"rsync -a /src /dst"}
	execChecks = []string{"!pgrep -f spooler", "@mysql -e 'SHOW SLAVE STATUS' | grep -q Running"}
	prometheusURL = ""

	set, err := buildCheckSet(stubManager{})
	assert.NilError(t, err)
	assert.Equal(t, set.Len(), 7)
}

func Test_buildCheckSetBadExecSpec(t *testing.T) {
	forbidFiles = nil
	requireFiles = nil
	blockUnits = nil
	blockProcesses = nil
	blockCmdlines = nil
	execChecks = []string{"echo 'unbalanced"}

	_, err := buildCheckSet(stubManager{})
	assert.Assert(t, err != nil)
}
