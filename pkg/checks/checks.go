// Package checks provides the condition checks deciding whether shutdown may
// proceed, and the engine that aggregates them into a single verdict.
// You can use this package if you fork shutguard's main loop.
//
// Check commands run with no timeout: a hung command stalls the whole poll
// cycle until it returns. That is a known limitation of the sequential
// evaluation model, not something callers should paper over.
package checks

import (
	log "github.com/sirupsen/logrus"
)

// Kind identifies a check variant. Kinds are evaluated in a fixed order,
// and that order is part of the contract: a failure in an earlier kind
// prevents later kinds from running at all that cycle.
type Kind int

// The check kinds, in evaluation order.
const (
	KindForbiddenFile Kind = iota
	KindRequiredFile
	KindActiveUnit
	KindRunningCommand
	KindRunningCommandArgs
	KindExecCheck
	KindActiveAlert
)

var kindNames = map[Kind]string{
	KindForbiddenFile:      "forbidden-file",
	KindRequiredFile:       "required-file",
	KindActiveUnit:         "active-unit",
	KindRunningCommand:     "running-command",
	KindRunningCommandArgs: "running-cmdline",
	KindExecCheck:          "exec-check",
	KindActiveAlert:        "active-alert",
}

var kindOrder = []Kind{
	KindForbiddenFile,
	KindRequiredFile,
	KindActiveUnit,
	KindRunningCommand,
	KindRunningCommandArgs,
	KindExecCheck,
	KindActiveAlert,
}

func (k Kind) String() string {
	return kindNames[k]
}

// Check is the standard interface a condition test must implement.
// Failing reports whether the condition currently blocks shutdown; an error
// from the underlying probe counts as failing too, but is logged distinctly
// by the engine.
type Check interface {
	Kind() Kind
	Failing() (bool, error)
	String() string
}

// CheckSet holds the configured checks bucketed by kind. Insertion order is
// irrelevant within a kind; kinds themselves are walked in evaluation order.
type CheckSet struct {
	byKind map[Kind][]Check
	count  int
}

// NewCheckSet returns an empty set.
func NewCheckSet() *CheckSet {
	return &CheckSet{byKind: make(map[Kind][]Check)}
}

// Add appends a check to its kind's bucket.
func (s *CheckSet) Add(c Check) {
	s.byKind[c.Kind()] = append(s.byKind[c.Kind()], c)
	s.count++
}

// Len returns the total number of configured checks.
func (s *CheckSet) Len() int {
	return s.count
}

// inOrder returns all checks in evaluation order.
func (s *CheckSet) inOrder() []Check {
	ordered := make([]Check, 0, s.count)
	for _, k := range kindOrder {
		ordered = append(ordered, s.byKind[k]...)
	}
	return ordered
}

// Engine evaluates a CheckSet and remembers the previous verdict so that
// transitions can be logged prominently while steady state stays quiet.
// The remembered state is only the boolean verdict, never which check failed.
type Engine struct {
	set       *CheckSet
	evaluated bool
	lastPass  bool
}

// NewEngine returns an engine for the given set.
func NewEngine(set *CheckSet) *Engine {
	return &Engine{set: set}
}

// Evaluate walks the checks in kind order and returns true when every check
// passes, meaning shutdown is permitted. The first failing check stops the
// evaluation; an empty set trivially passes.
func (e *Engine) Evaluate() bool {
	pass := true
	for _, c := range e.set.inOrder() {
		failing, err := c.Failing()
		entry := log.WithField("kind", c.Kind().String()).WithField("check", c.String())
		if err != nil {
			entry.Errorf("Check error, counting as failed: %v", err)
			pass = false
			break
		}
		if failing {
			entry.Debug("Check failed")
			pass = false
			break
		}
		entry.Debug("Check passed")
	}
	e.report(pass)
	return pass
}

// report emits a transition event when the verdict differs from the previous
// cycle, and a quieter steady-state event otherwise.
func (e *Engine) report(pass bool) {
	verdict := "fail"
	if pass {
		verdict = "pass"
	}
	entry := log.WithField("verdict", verdict)
	switch {
	case !e.evaluated:
		entry.Infof("Initial conditions verdict: %s", verdict)
	case pass != e.lastPass:
		if pass {
			entry.Info("Conditions now pass, shutdown may proceed")
		} else {
			entry.Warn("Conditions now fail, holding shutdown")
		}
	default:
		if pass {
			entry.Debug("Conditions still passing")
		} else {
			entry.Debug("Conditions still failing")
		}
	}
	e.evaluated = true
	e.lastPass = pass
}
