package session

import "context"

// Logger is the logging surface used by the session layer.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// HintStore persists the reconnect hints.
type HintStore interface {
	SaveHints(address string) error
	ClearHints() error
}

// BalanceRefresher re-reads the native balance of address into the store.
type BalanceRefresher interface {
	UpdateBalance(ctx context.Context, address string) error
}

// Recorder receives session transitions for metrics.
type Recorder interface {
	RecordTransition(transition string, connected bool)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string, bool) {}
