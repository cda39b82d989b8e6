package main

import (
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultLogFilename  = "walletkerneld.log"
	defaultLogDirname   = "logs"
	defaultMaxLogSizeMB = 10
	defaultMaxLogFiles  = 3
)

// config holds every command-line option the demo daemon accepts, in the
// jessevdk/go-flags struct-tag style the rest of the stack uses for its own
// daemon configuration.
type config struct {
	DataDir string `long:"datadir" description:"Directory to store log output"`
	LogDir  string `long:"logdir" description:"Directory to log output, defaults under datadir"`
	Debug   string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}" default:"info"`

	TickIntervalMS int `long:"tickintervalms" description:"Active Kernel ticker interval in milliseconds" default:"5000"`

	Accounts int `long:"accounts" description:"Number of HD accounts to seed with a random starting UTxO set" default:"1"`
}

// defaultConfig returns a config populated with every default value, mirroring
// the teacher's loadConfig pattern of starting from hardcoded defaults before
// parsing flags on top.
func defaultConfig() config {
	return config{
		DataDir: defaultDataDir(),
		Debug:   "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".walletkerneld")
}

// loadConfig parses command-line flags on top of the defaults. A config file
// is deliberately not wired in for this demo binary: there is exactly one
// runnable scenario and no persistent settings worth writing to disk.
func loadConfig() (*config, error) {
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.DataDir, defaultLogDirname)
	}
	return &cfg, nil
}
