//go:build !filelog

package build

import "os"

// LoggingType is a log type that writes to stdout (and the rotator, if one
// has been configured via InitLogRotator).
const LoggingType = LogTypeStdOut

// Write mirrors the log line to stdout and, once configured, the rotator.
func (w *LogWriter) Write(b []byte) (int, error) {
	os.Stdout.Write(b)
	if w.rotator != nil {
		return w.rotator.Write(b)
	}
	return len(b), nil
}
