package main

import (
	"github.com/decred/slog"

	"github.com/decred/walletkernel/build"
	"github.com/decred/walletkernel/walletlog"
)

var log slog.Logger = slog.Disabled

// initLogging wires up the rotating log writer and every package-level
// logger, the same two-step SetupLoggers dance the teacher's daemon main
// performs before doing anything else.
func initLogging(cfg *config) (*build.RotatingLogWriter, error) {
	root := build.NewRotatingLogWriter()
	logFile := cfg.LogDir + "/" + defaultLogFilename
	if err := root.InitLogRotator(logFile, defaultMaxLogSizeMB, defaultMaxLogFiles); err != nil {
		return nil, err
	}

	walletlog.SetupLoggers(root)
	log = build.NewSubLogger("MAIN", root.GenSubLogger)
	root.RegisterSubLogger("MAIN", log)

	for _, subsystem := range []string{"KERN", "SUBM", "PRFL", "STOR", "ESK ", "MAIN"} {
		if err := root.SetLogLevel(subsystem, cfg.Debug); err != nil {
			return nil, err
		}
	}
	return root, nil
}
