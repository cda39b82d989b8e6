package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitLogRotatorAndSubLogger(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "test.log")

	w := NewRotatingLogWriter()
	require.NoError(t, w.InitLogRotator(logFile, 1, 1))

	logger := w.GenSubLogger("TEST")
	require.NotNil(t, logger)
	w.RegisterSubLogger("TEST", logger)

	require.NoError(t, w.SetLogLevel("TEST", "debug"))
	require.Error(t, w.SetLogLevel("UNKNOWN", "debug"))
	require.Error(t, w.SetLogLevel("TEST", "not-a-level"))

	logger.Infof("hello")

	_, err := os.Stat(logFile)
	require.NoError(t, err)
}

func TestNewSubLoggerDisabledWithoutGenerator(t *testing.T) {
	logger := NewSubLogger("TEST", nil)
	require.NotNil(t, logger)
}
