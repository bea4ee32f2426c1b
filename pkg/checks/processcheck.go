package checks

import (
	"fmt"
	"strings"

	"github.com/prometheus/procfs"
)

// Compile-time checks to ensure the types implement the interface
var (
	_ Check = (*RunningCommandCheck)(nil)
	_ Check = (*RunningCommandArgsCheck)(nil)
)

// RunningCommandCheck fails while a process whose command name exactly
// matches Name exists. The comparison is against the kernel's comm value,
// which is truncated to 15 characters; the exact-match semantic is
// deliberate and can both under- and over-match depending on how the
// platform names processes.
type RunningCommandCheck struct {
	Name string
	proc string
}

// NewRunningCommandCheck is the constructor for the running-command check.
func NewRunningCommandCheck(name string) *RunningCommandCheck {
	return &RunningCommandCheck{Name: name, proc: procfs.DefaultMountPoint}
}

// Kind returns KindRunningCommand.
func (c RunningCommandCheck) Kind() Kind { return KindRunningCommand }

func (c RunningCommandCheck) String() string {
	return fmt.Sprintf("running command %s", c.Name)
}

// Failing scans the process table for a matching command name.
func (c RunningCommandCheck) Failing() (bool, error) {
	fs, err := procfs.NewFS(c.proc)
	if err != nil {
		return false, fmt.Errorf("error opening procfs: %v", err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return false, fmt.Errorf("error listing processes: %v", err)
	}
	for _, p := range procs {
		comm, err := p.Comm()
		if err != nil {
			// Process exited mid-scan.
			continue
		}
		if comm == c.Name {
			return true, nil
		}
	}
	return false, nil
}

// RunningCommandArgsCheck fails while a process whose full command line
// exactly matches Pattern exists. The command line is the space-joined argv.
type RunningCommandArgsCheck struct {
	Pattern string
	proc    string
}

// NewRunningCommandArgsCheck is the constructor for the running-cmdline check.
func NewRunningCommandArgsCheck(pattern string) *RunningCommandArgsCheck {
	return &RunningCommandArgsCheck{Pattern: pattern, proc: procfs.DefaultMountPoint}
}

// Kind returns KindRunningCommandArgs.
func (c RunningCommandArgsCheck) Kind() Kind { return KindRunningCommandArgs }

func (c RunningCommandArgsCheck) String() string {
	return fmt.Sprintf("running cmdline %q", c.Pattern)
}

// Failing scans the process table for a matching command line.
func (c RunningCommandArgsCheck) Failing() (bool, error) {
	fs, err := procfs.NewFS(c.proc)
	if err != nil {
		return false, fmt.Errorf("error opening procfs: %v", err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return false, fmt.Errorf("error listing processes: %v", err)
	}
	for _, p := range procs {
		args, err := p.CmdLine()
		if err != nil {
			continue
		}
		if strings.Join(args, " ") == c.Pattern {
			return true, nil
		}
	}
	return false, nil
}
