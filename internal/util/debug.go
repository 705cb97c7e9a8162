package util

import (
	"log"
	"os"
)

var debugLog *log.Logger

func init() {
	path := os.Getenv("VIVID_DEBUG")
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	debugLog = log.New(f, "", log.Ltime|log.Lmicroseconds)
}

// Debugf writes to the debug file when VIVID_DEBUG names one. Writing to
// stdout or stderr would corrupt the terminal UI, so without the env var
// diagnostics are dropped.
func Debugf(format string, args ...any) {
	if debugLog == nil {
		return
	}
	debugLog.Printf(format, args...)
}
