// Package daemon drives the poll/react cycle: ask the condition engine for a
// verdict, tell the guard controller to enforce or release, sleep, repeat.
// Termination signals release the guard before exit so the host is never left
// permanently blocked by a vanished daemon.
package daemon

import (
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/shutguard/shutguard/internal/delaytick"
	"github.com/shutguard/shutguard/internal/notifications"
)

// Evaluator produces the conditions verdict for one poll cycle.
type Evaluator interface {
	Evaluate() bool
}

// GuardSetter reconciles the block state with the verdict. Set must be
// idempotent; it reports whether anything actually changed.
type GuardSetter interface {
	Set(enforce bool) bool
}

var (
	blockedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: "shutguard",
		Name:      "blocked",
		Help:      "Shutdown targets are currently guarded.",
	})
	passingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: "shutguard",
		Name:      "conditions_passing",
		Help:      "All configured condition checks pass.",
	})
	failCyclesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "shutguard",
		Name:      "fail_cycles_total",
		Help:      "Poll cycles whose conditions verdict was fail.",
	})
)

func init() {
	prometheus.MustRegister(blockedGauge, passingGauge, failCyclesCounter)
}

// Daemon holds the wired collaborators and the loop configuration.
type Daemon struct {
	Engine        Evaluator
	Guard         GuardSetter
	Period        time.Duration
	Splay         bool
	StartBlocked  bool
	ExitOnPass    bool
	IgnoreSignals bool
	Notifier      notifications.Notifier
}

// Run evaluates once, reconciles, then loops on the configured interval until
// exit-on-pass fires or a termination signal arrives. It returns nil on every
// graceful exit path.
func (d *Daemon) Run() error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals,
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT,
		syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM)
	defer signal.Stop(signals)

	pass := d.Engine.Evaluate()
	d.observe(pass)
	switch {
	case !pass || d.StartBlocked:
		d.enforce(true)
	case d.ExitOnPass:
		log.Info("Conditions pass and exit-on-pass set, exiting without installing the guard")
		return nil
	}

	var tick <-chan time.Time
	if d.Splay {
		tick = delaytick.New(rand.NewSource(time.Now().UnixNano()), d.Period)
	} else {
		tick = time.Tick(d.Period)
	}

	for {
		select {
		case sig := <-signals:
			if done := d.handleSignal(sig); done {
				return nil
			}
		case <-tick:
			pass := d.Engine.Evaluate()
			d.observe(pass)
			if pass {
				d.enforce(false)
				if d.ExitOnPass {
					log.Info("Conditions pass and exit-on-pass set, exiting")
					return nil
				}
			} else {
				d.enforce(true)
			}
		}
	}
}

// handleSignal reacts to an asynchronous signal and reports whether the
// daemon should exit. It touches nothing but the idempotent guard release.
func (d *Daemon) handleSignal(sig os.Signal) bool {
	entry := log.WithField("signal", sig.String())
	if d.IgnoreSignals {
		entry.Warn("Signal received, ignoring (signal-triggered release disabled)")
		return false
	}
	switch sig {
	case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
		entry.Info("Termination signal received, releasing guard before exit")
		d.enforce(false)
		return true
	default:
		entry.Info("Signal received, ignoring")
		return false
	}
}

func (d *Daemon) observe(pass bool) {
	if pass {
		passingGauge.Set(1)
	} else {
		passingGauge.Set(0)
		failCyclesCounter.Inc()
	}
}

func (d *Daemon) enforce(enforce bool) {
	changed := d.Guard.Set(enforce)
	if enforce {
		blockedGauge.Set(1)
	} else {
		blockedGauge.Set(0)
	}
	if !changed || d.Notifier == nil {
		return
	}
	message := "Shutdown unblocked, all conditions pass"
	if enforce {
		message = "Shutdown blocked until conditions pass"
	}
	if err := d.Notifier.Send(message, "shutguard"); err != nil {
		log.Infof("Error notifying: %v", err)
	}
}
