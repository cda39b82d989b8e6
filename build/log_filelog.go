//go:build filelog

package build

// LoggingType is a log type that writes only to the rotator, silencing
// stdout. Built with `-tags filelog`.
const LoggingType = LogTypeFile

// Write writes only to the rotator; it is a no-op until InitLogRotator has
// been called.
func (w *LogWriter) Write(b []byte) (int, error) {
	if w.rotator == nil {
		return len(b), nil
	}
	return w.rotator.Write(b)
}
