package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// Per-command deadlines.
const (
	requestTimeout = 30 * time.Second
	historyTimeout = 3 * time.Minute

	// approvalTimeout leaves the owner time to answer a prompt.
	approvalTimeout = 5 * time.Minute
)

// contextWithTimeout returns a timeout context rooted in the command context.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, d)
}
