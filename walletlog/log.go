// Package walletlog centralizes the package-level loggers used across the
// wallet kernel, the same replaceable-logger pattern dcrlnd's top-level
// log.go uses for its own subsystems: every logger starts out disabled and
// is swapped for a real one once SetupLoggers is called with a root logger.
package walletlog

import (
	"github.com/decred/slog"
	"github.com/decred/walletkernel/build"
)

// replaceableLogger lets a package-level logger variable be swapped for a
// real one after the fact, without requiring every call site to take a
// pointer-to-interface.
type replaceableLogger struct {
	slog.Logger
	subsystem string
}

var (
	pkgLoggers []*replaceableLogger

	addPkgLogger = func(subsystem string) *replaceableLogger {
		l := &replaceableLogger{Logger: slog.Disabled, subsystem: subsystem}
		pkgLoggers = append(pkgLoggers, l)
		return l
	}

	// KernLog covers the Passive/Active Kernel.
	KernLog = addPkgLogger("KERN")
	// SubmLog covers the submission layer.
	SubmLog = addPkgLogger("SUBM")
	// PrflLog covers the prefilter.
	PrflLog = addPkgLogger("PRFL")
	// StoreLog covers the HD Wallet Store.
	StoreLog = addPkgLogger("STOR")
	// EskLog covers the ESK map.
	EskLog = addPkgLogger("ESK ")
)

// SetupLoggers replaces every package-level logger declared above with a
// real sub-logger obtained from root.
func SetupLoggers(root *build.RotatingLogWriter) {
	for _, l := range pkgLoggers {
		l.Logger = build.NewSubLogger(l.subsystem, root.GenSubLogger)
		root.RegisterSubLogger(l.subsystem, l.Logger)
	}
}

// Disabled returns a Logger that discards everything, the default state of
// every package-level logger before SetupLoggers runs.
func Disabled() slog.Logger { return slog.Disabled }
