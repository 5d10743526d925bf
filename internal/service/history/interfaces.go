package history

import "github.com/mrz1836/pocket/internal/session"

// StateStore is the slice of the session store the scanner reads.
type StateStore interface {
	Snapshot() session.State
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Recorder receives scan statistics.
type Recorder interface {
	RecordBlocks(scanned, skipped int)
}
