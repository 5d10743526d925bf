package transaction

import (
	"context"

	"github.com/mrz1836/pocket/internal/session"
)

// StateStore is the slice of the session store the service needs.
type StateStore interface {
	Snapshot() session.State
}

// BalanceRefresher re-reads the native balance after a submission.
type BalanceRefresher interface {
	UpdateBalance(ctx context.Context, address string) error
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Recorder receives send outcomes for metrics.
type Recorder interface {
	RecordSend(ok bool)
}
