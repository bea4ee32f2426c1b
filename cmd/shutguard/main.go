// The main controller for shutguard.
// This package wires the condition engine, the guard controller and the
// daemon loop together; it is a reference on how to assemble the pieces if
// you build your own guard on top of this project's modules.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	papi "github.com/prometheus/client_golang/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/shutguard/shutguard/internal/cli"
	"github.com/shutguard/shutguard/internal/config"
	"github.com/shutguard/shutguard/internal/notifications"
	"github.com/shutguard/shutguard/pkg/checks"
	"github.com/shutguard/shutguard/pkg/daemon"
	"github.com/shutguard/shutguard/pkg/guard"
	"github.com/shutguard/shutguard/pkg/systemd"
)

var (
	version = "unreleased"

	// Command line flags
	targets              []string
	overrideDir          string
	interval             time.Duration
	splay                bool
	startBlocked         bool
	exitOnPass           bool
	ignoreSignals        bool
	installGuard         bool
	removeGuard          bool
	forbidFiles          []string
	requireFiles         []string
	blockUnits           []string
	blockProcesses       []string
	blockCmdlines        []string
	execChecks           []string
	prometheusURL        string
	alertFilter          cli.RegexpValue
	alertFiringOnly      bool
	alertFilterMatchOnly bool
	notifyURL            string
	metricsHost          string
	metricsPort          int
	configFile           string
	logLevel             string
	logFormat            string
	logTimestamps        bool
)

func main() {
	flag.StringArrayVar(&targets, "target", guard.DefaultTargets,
		"shutdown-class target to protect (repeatable)")
	flag.StringVar(&overrideDir, "override-dir", "/run/systemd/system",
		"service manager runtime override area the drop-ins are written under")
	flag.DurationVar(&interval, "interval", time.Minute,
		"period at which the conditions are re-evaluated (fractional seconds allowed)")
	flag.BoolVar(&splay, "splay", false,
		"randomize the delay before the first re-evaluation between interval/2 and 1.5*interval")
	flag.BoolVar(&startBlocked, "start-blocked", false,
		"install the guard on startup even if the initial evaluation passes")
	flag.BoolVar(&exitOnPass, "exit-on-pass", false,
		"exit successfully as soon as all conditions pass")
	flag.BoolVar(&ignoreSignals, "ignore-signals", false,
		"do not release the guard on termination signals; ending the daemon then requires an unconditional kill and the guard stays installed")
	flag.BoolVar(&installGuard, "install-guard", false,
		"install the guard for all targets and exit immediately")
	flag.BoolVar(&removeGuard, "remove-guard", false,
		"remove the guard for all targets and exit immediately")
	flag.StringArrayVar(&forbidFiles, "forbid-file", nil,
		"hold shutdown while this path exists (repeatable)")
	flag.StringArrayVar(&requireFiles, "require-file", nil,
		"hold shutdown while this path is missing (repeatable)")
	flag.StringArrayVar(&blockUnits, "block-on-unit", nil,
		"hold shutdown while this service manager unit is active (repeatable)")
	flag.StringArrayVar(&blockProcesses, "block-on-process", nil,
		"hold shutdown while a process with exactly this command name runs; comm values are kernel-truncated to 15 chars (repeatable)")
	flag.StringArrayVar(&blockCmdlines, "block-on-cmdline", nil,
		"hold shutdown while a process with exactly this full command line runs (repeatable)")
	flag.StringArrayVar(&execChecks, "exec-check", nil,
		"hold shutdown while this command exits non-zero; prefix '!' to expect failure instead, prefix '@' to run via /bin/sh -c (repeatable)")
	flag.StringVar(&prometheusURL, "prometheus-url", "",
		"Prometheus instance to probe for active alerts; active alerts hold shutdown")
	flag.Var(&alertFilter, "alert-filter-regexp",
		"alert names to ignore when checking for active alerts")
	flag.BoolVar(&alertFilterMatchOnly, "alert-filter-match-only", false,
		"Only block if the alert-filter-regexp matches active alerts")
	flag.BoolVar(&alertFiringOnly, "alert-firing-only", false,
		"only consider firing alerts when checking for active alerts")
	flag.StringVar(&notifyURL, "notify-url", "",
		"notify URL for guard install/release notifications")
	flag.StringVar(&metricsHost, "metrics-host", "",
		"host where metrics will listen")
	flag.IntVar(&metricsPort, "metrics-port", 0,
		"port number where metrics will listen (0 disables the listener)")
	flag.StringVar(&configFile, "config", "",
		"configuration file overlaying flag defaults (yaml, toml or json)")
	flag.StringVar(&logLevel, "log-level", "info",
		"minimum log severity: debug, info, warning, error or fatal")
	flag.StringVar(&logFormat, "log-format", "text",
		"use text or json log format")
	flag.BoolVar(&logTimestamps, "log-timestamps", true,
		"include timestamps in log output (disable when journald stamps them already)")

	flag.Parse()

	// Load flags from environment variables
	cli.LoadFromEnv()

	if err := config.Load(configFile); err != nil {
		log.Fatalf("unrecoverable error - %v", err)
	}

	setupLogging()

	if err := validateFlags(); err != nil {
		log.Fatalf("unrecoverable error - %v", err)
	}

	if os.Geteuid() != 0 {
		log.Fatal("shutguard must run as root to write service-manager overrides and trigger reloads")
	}

	log.WithFields(log.Fields{
		"version":  version,
		"targets":  targets,
		"interval": interval,
	}).Info("Starting shutdown guard daemon")

	mgr, err := systemd.NewDBusManager()
	if err != nil {
		log.Fatalf("unrecoverable error - failed to connect to the service manager: %v", err)
	}
	defer mgr.Close()

	controller := guard.New(mgr, targets, overrideDir)

	if runOneShot(controller, installGuard, removeGuard) {
		return
	}

	set, err := buildCheckSet(mgr)
	if err != nil {
		log.Fatalf("unrecoverable error - invalid check configuration: %v", err)
	}
	log.Infof("Evaluating %d condition checks every %v", set.Len(), interval)

	if metricsPort > 0 {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Fatal(http.ListenAndServe(fmt.Sprintf("%s:%d", metricsHost, metricsPort), nil)) // #nosec G114
		}()
	}

	d := &daemon.Daemon{
		Engine:        checks.NewEngine(set),
		Guard:         controller,
		Period:        interval,
		Splay:         splay,
		StartBlocked:  startBlocked,
		ExitOnPass:    exitOnPass,
		IgnoreSignals: ignoreSignals,
		Notifier:      notifications.NewNotifier(notifyURL),
	}
	if err := d.Run(); err != nil {
		log.Fatalf("daemon loop failed: %v", err)
	}
}

// runOneShot reconciles the guard once for --install-guard or --remove-guard
// and reports whether such a mode was requested. The condition engine is
// never consulted in these modes.
func runOneShot(g daemon.GuardSetter, install, remove bool) bool {
	switch {
	case install:
		g.Set(true)
	case remove:
		g.Set(false)
	default:
		return false
	}
	return true
}

// validateFlags rejects configurations that must fail at startup rather than
// be discovered mid-loop.
func validateFlags() error {
	if installGuard && removeGuard {
		return fmt.Errorf("--install-guard and --remove-guard are mutually exclusive")
	}
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %v", interval)
	}
	if len(targets) == 0 {
		return fmt.Errorf("at least one --target is required")
	}
	return nil
}

// buildCheckSet turns the configured check lists into a CheckSet, preserving
// the fixed kind evaluation order regardless of flag order.
func buildCheckSet(mgr systemd.Manager) (*checks.CheckSet, error) {
	set := checks.NewCheckSet()
	for _, path := range forbidFiles {
		set.Add(checks.NewForbiddenFileCheck(path))
	}
	for _, path := range requireFiles {
		set.Add(checks.NewRequiredFileCheck(path))
	}
	for _, unit := range blockUnits {
		set.Add(checks.NewActiveUnitCheck(unit, mgr))
	}
	for _, name := range blockProcesses {
		set.Add(checks.NewRunningCommandCheck(name))
	}
	for _, pattern := range blockCmdlines {
		set.Add(checks.NewRunningCommandArgsCheck(pattern))
	}
	for _, raw := range execChecks {
		c, err := checks.ParseExecCheck(raw)
		if err != nil {
			return nil, err
		}
		set.Add(c)
	}
	if prometheusURL != "" {
		log.Infof("Holding shutdown on active prometheus alerts from %v", prometheusURL)
		set.Add(checks.NewActiveAlertCheck(papi.Config{Address: prometheusURL}, alertFilter.Regexp, alertFiringOnly, alertFilterMatchOnly))
	}
	return set, nil
}

func setupLogging() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		level = log.InfoLevel
		log.Warnf("incorrect configuration for log-level %q, using info", logLevel)
	}
	log.SetLevel(level)

	switch logFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{DisableTimestamp: !logTimestamps})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: logTimestamps, DisableTimestamp: !logTimestamps})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: logTimestamps, DisableTimestamp: !logTimestamps})
		log.Info("incorrect configuration for log-format, using text formatter")
	}
}
