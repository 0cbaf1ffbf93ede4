//go:build filelog

package build

import "os"

var logf *os.File

// LoggingType is a log type that writes to a file.
const LoggingType = LogTypeFile

// Write writes the byte slice to the fallback log file and, once
// InitLogRotator has run, to the rotated log file as well.
func (w *LogWriter) Write(b []byte) (int, error) {
	n, err := logf.Write(b)
	if err != nil {
		return n, err
	}
	if rotatorPinned != nil {
		_, _ = rotatorPinned.Write(b)
	}
	return n, nil
}

func init() {
	var err error
	logf, err = os.Create("dcrlnd.log")
	if err != nil {
		panic(err)
	}
}
