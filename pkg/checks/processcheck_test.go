package checks

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func ownComm(t *testing.T) string {
	t.Helper()
	comm, err := os.ReadFile("/proc/self/comm")
	if err != nil {
		t.Skipf("no readable /proc on this system: %v", err)
	}
	return strings.TrimSuffix(string(comm), "\n")
}

func ownCmdline(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		t.Skipf("no readable /proc on this system: %v", err)
	}
	args := bytes.Split(bytes.TrimSuffix(raw, []byte{0}), []byte{0})
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, " ")
}

func Test_runningCommandCheck(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    bool
	}{
		{
			name:    "Ensure our own process is found by comm",
			command: ownComm(t),
			want:    true,
		},
		{
			name:    "Ensure a bogus name matches nothing",
			command: "shutguard-no-such-process",
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRunningCommandCheck(tt.command).Failing()
			if err != nil {
				t.Fatalf("Failing() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Failing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_runningCommandArgsCheck(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{
			name:    "Ensure our own full command line is found",
			pattern: ownCmdline(t),
			want:    true,
		},
		{
			name:    "Ensure a substring of the command line does not match",
			pattern: strings.Fields(ownCmdline(t))[0] + " definitely-not-our-args",
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRunningCommandArgsCheck(tt.pattern).Failing()
			if err != nil {
				t.Fatalf("Failing() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Failing() = %v, want %v", got, tt.want)
			}
		})
	}
}
