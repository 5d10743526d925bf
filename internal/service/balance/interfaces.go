package balance

import "github.com/mrz1836/pocket/internal/session"

// StateStore is the slice of the session store the service needs.
type StateStore interface {
	Snapshot() session.State
	SetNativeBalance(balance string)
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}
