package checks

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"
)

// Compile-time check to ensure the type implements the interface
var _ Check = (*ExecCheck)(nil)

// ExecCheck runs an invocation and fails when the exit code's zero/non-zero
// outcome does not match the expected one. With Shell set, the invocation is
// passed whole to /bin/sh -c, supporting pipes, redirection and chaining;
// otherwise it is split into words and executed directly, no shell features.
// Negate flips the expected outcome from success to failure.
type ExecCheck struct {
	Invocation string
	Argv       []string
	Negate     bool
	Shell      bool
}

// ParseExecCheck builds an ExecCheck from its configured form. A leading '!'
// negates the expected outcome and a leading '@' selects shell execution;
// the markers may combine in either order.
func ParseExecCheck(raw string) (*ExecCheck, error) {
	rest := raw
	c := &ExecCheck{}
	for {
		switch {
		case strings.HasPrefix(rest, "!"):
			c.Negate = true
			rest = strings.TrimLeft(rest[1:], " ")
		case strings.HasPrefix(rest, "@"):
			c.Shell = true
			rest = strings.TrimLeft(rest[1:], " ")
		default:
			if rest == "" {
				return nil, fmt.Errorf("empty exec check: %q", raw)
			}
			c.Invocation = rest
			if !c.Shell {
				argv, err := shlex.Split(rest)
				if err != nil {
					return nil, fmt.Errorf("error parsing exec check %q: %v", raw, err)
				}
				if len(argv) == 0 {
					return nil, fmt.Errorf("empty exec check: %q", raw)
				}
				c.Argv = argv
			}
			return c, nil
		}
	}
}

// Kind returns KindExecCheck.
func (c ExecCheck) Kind() Kind { return KindExecCheck }

func (c ExecCheck) String() string {
	s := fmt.Sprintf("exec %q", c.Invocation)
	if c.Shell {
		s = fmt.Sprintf("shell %q", c.Invocation)
	}
	if c.Negate {
		s = "negated " + s
	}
	return s
}

// Failing runs the invocation and compares actual success against expected.
// A launch failure (as opposed to a non-zero exit) is returned to the engine,
// which counts it as a failed condition.
func (c ExecCheck) Failing() (bool, error) {
	var cmd *exec.Cmd
	if c.Shell {
		cmd = exec.Command("/bin/sh", "-c", c.Invocation) // #nosec G204 -- operator-supplied check command
	} else {
		cmd = exec.Command(c.Argv[0], c.Argv[1:]...) // #nosec G204 -- operator-supplied check command
	}
	bufStdout := new(bytes.Buffer)
	bufStderr := new(bytes.Buffer)
	cmd.Stdout = bufStdout
	cmd.Stderr = bufStderr

	err := cmd.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// Something was grossly misconfigured, such as the command path
			// being wrong.
			return false, fmt.Errorf("error invoking check command %q: %v", c.Invocation, err)
		}
	}
	success := err == nil
	expected := !c.Negate
	if success != expected {
		log.WithFields(log.Fields{
			"cmd":    strings.Join(cmd.Args, " "),
			"stdout": bufStdout.String(),
			"stderr": bufStderr.String(),
		}).Debugf("check command exited %d, expected success=%v", cmd.ProcessState.ExitCode(), expected)
		return true, nil
	}
	return false, nil
}
