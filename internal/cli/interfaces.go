package cli

import (
	"io"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/config"
	"github.com/mrz1836/pocket/internal/output"
)

// Compile-time interface checks.
var (
	_ ConfigProvider = (*config.Config)(nil)
	_ LogWriter      = (*config.Logger)(nil)
	_ FormatProvider = (*output.Formatter)(nil)
)

// ConfigProvider provides read access to configuration values.
// This interface enables mocking configuration in tests.
type ConfigProvider interface {
	// GetHome returns the pocket home directory path.
	GetHome() string

	// TargetChain returns the chain sessions are kept on.
	TargetChain() chain.Config

	// UpstreamRPC returns the node URL the local wallet reads from.
	UpstreamRPC() string

	// KeyPath returns the encrypted key file path.
	KeyPath() string

	// GetHistoryLimit returns the default number of history records.
	GetHistoryLimit() int

	// GetTokens returns the configured portfolio tokens.
	GetTokens() []chain.Token

	// GetMetricsAddr returns the watch listener address.
	GetMetricsAddr() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose returns true if verbose output is enabled.
	IsVerbose() bool
}

// LogWriter provides logging capabilities.
// This interface enables mocking logging in tests.
type LogWriter interface {
	// Debug logs a debug-level message.
	Debug(format string, args ...any)

	// Error logs an error-level message.
	Error(format string, args ...any)
}

// FormatProvider renders command results.
// This interface enables capturing output in tests.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format

	// IsJSON reports whether results are written as JSON.
	IsJSON() bool

	// Print writes a result.
	Print(v any) error

	// Printf writes a progress line in text mode only.
	Printf(format string, args ...any) error

	// Writer returns the destination of results.
	Writer() io.Writer
}
