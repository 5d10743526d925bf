// Package config provides configuration management for pocket.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/fileutil"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version" validate:"eq=1"`
	Home    string        `yaml:"home" validate:"required"`
	Network NetworkConfig `yaml:"network"`
	Wallet  WalletConfig  `yaml:"wallet"`
	History HistoryConfig `yaml:"history"`
	Tokens  []chain.Token `yaml:"tokens,omitempty" validate:"dive"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig selects the target chain and the node the local wallet reads from.
type NetworkConfig struct {
	Target        string  `yaml:"target" validate:"oneof=bsc bsc-testnet"`
	RPC           string  `yaml:"rpc,omitempty" validate:"omitempty,url"`
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`
	Burst         int     `yaml:"burst" validate:"gte=1"`
}

// WalletConfig configures the local software wallet.
type WalletConfig struct {
	Identity string `yaml:"identity" validate:"oneof=tokenpocket metamask safepal none"`
	KeyFile  string `yaml:"key_file" validate:"required"`
}

// HistoryConfig bounds the recent-activity scan.
type HistoryConfig struct {
	DefaultLimit int `yaml:"default_limit" validate:"gte=1,lte=100"`
}

// MetricsConfig configures the watch command's HTTP listener.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" validate:"oneof=auto text json"`
	Color         string `yaml:"color" validate:"oneof=auto always never"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=off none error debug"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pocketerr.Wrap(pocketerr.ErrConfigInvalid, "parsing %s: %v", path, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return pocketerr.WithDetails(pocketerr.ErrConfigInvalid, map[string]string{
			"reason": err.Error(),
		})
	}
	return nil
}

// Path returns the config file path inside home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the pocket home directory with ~ expanded.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// StorePath returns the bbolt database path.
func (c *Config) StorePath() string {
	return filepath.Join(c.GetHome(), "pocket.db")
}

// KeyPath returns the encrypted key file path.
func (c *Config) KeyPath() string {
	p := ExpandHome(c.Wallet.KeyFile)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.GetHome(), p)
}

// LogPath returns the log file path, or "" when file logging is disabled.
func (c *Config) LogPath() string {
	if c.Logging.File == "" {
		return ""
	}
	p := ExpandHome(c.Logging.File)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.GetHome(), p)
}

// TargetChain returns the chain every session must be on.
func (c *Config) TargetChain() chain.Config {
	if c.Network.Target == "bsc-testnet" {
		return chain.BSCTestnet.Clone()
	}
	return chain.BSC.Clone()
}

// UpstreamRPC returns the node URL the local wallet reads from.
func (c *Config) UpstreamRPC() string {
	if c.Network.RPC != "" {
		return c.Network.RPC
	}
	target := c.TargetChain()
	return target.RPCURLs[0]
}

// GetHistoryLimit returns the default number of history records.
func (c *Config) GetHistoryLimit() int {
	return c.History.DefaultLimit
}

// GetTokens returns the portfolio tokens: the configured list, or the
// registry tokens when none are configured.
func (c *Config) GetTokens() []chain.Token {
	if len(c.Tokens) > 0 {
		return c.Tokens
	}
	return chain.Tokens()
}

// GetMetricsAddr returns the watch listener address.
func (c *Config) GetMetricsAddr() string {
	return c.Metrics.Addr
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default pocket home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pocket"
	}
	return filepath.Join(home, ".pocket")
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}

// String summarizes the effective settings for debug logs.
func (c *Config) String() string {
	return fmt.Sprintf("home=%s target=%s rpc=%s identity=%s", c.GetHome(), c.Network.Target, c.UpstreamRPC(), c.Wallet.Identity)
}
