package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome           = "POCKET_HOME"
	EnvRPC            = "POCKET_RPC"
	EnvOutputFormat   = "POCKET_OUTPUT_FORMAT"
	EnvVerbose        = "POCKET_VERBOSE"
	EnvLogLevel       = "POCKET_LOG_LEVEL"
	EnvNoColor        = "NO_COLOR"
	EnvWalletIdentity = "POCKET_WALLET_IDENTITY"
	EnvPassword       = "POCKET_PASSWORD" // #nosec G101 -- variable name, not a credential
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Network.RPC = CleanURL(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	if v := os.Getenv(EnvWalletIdentity); v != "" {
		cfg.Wallet.Identity = strings.ToLower(strings.TrimSpace(v))
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// CleanURL strips whitespace, quotes and control characters that creep in
// when an RPC URL is pasted from a browser or a dashboard.
func CleanURL(raw string) string {
	raw = strings.Trim(strings.TrimSpace(raw), `"'`)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == ' ' {
			return -1
		}
		return r
	}, raw)
}
