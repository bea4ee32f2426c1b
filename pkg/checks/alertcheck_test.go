package checks

import (
	"testing"

	papi "github.com/prometheus/client_golang/api"
)

func Test_activeAlertCheckQueryError(t *testing.T) {
	// Instantiate the check against an unreachable Prometheus: the query
	// error must count as a failed condition when run through the engine.
	c := NewActiveAlertCheck(papi.Config{Address: "http://broken-url.invalid:9090"}, nil, false, false)

	set := NewCheckSet()
	set.Add(c)
	if got := NewEngine(set).Evaluate(); got != false {
		t.Errorf("Evaluate() = %v, want false on prometheus query error", got)
	}
}
