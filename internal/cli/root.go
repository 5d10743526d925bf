// Package cli implements the pocket command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/config"
	"github.com/mrz1836/pocket/internal/output"
	"github.com/mrz1836/pocket/internal/provider"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// Command group IDs used by the root help output.
const (
	groupSession = "session"
	groupWallet  = "wallet"
	groupKeys    = "keys"
	groupConfig  = "config"
)

// annotationWallet marks commands that need the wallet stack opened before
// they run.
const annotationWallet = "pocket/wallet"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	assumeYes    bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	buildInfo BuildInfo

	helpOnce sync.Once
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pocket",
	Short: "A TokenPocket-style wallet session for BNB Smart Chain",
	Long: `Pocket connects to a wallet provider, keeps the session on BNB Smart Chain,
and shows native and BEP-20 balances, sends BNB and scans recent blocks for
account activity.

The bundled provider is a local software wallet: its key is encrypted with
age on disk, its state lives in a bbolt database and chain reads go to a
BSC JSON-RPC node.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(); err != nil {
			return err
		}
		if !needsWallet(cmd) {
			return nil
		}
		cc, err := openCommandContext(cfg, logger, formatter)
		if err != nil {
			return err
		}
		SetCmdContext(cmd, cc)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if cc := GetCmdContext(cmd); cc != nil {
			cc.Close()
		}
		cleanup()
	},
}

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	Long:    `Print the version, commit and build date of this binary.`,
	Example: `  pocket version`,
	GroupID: groupConfig,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out(cmd.OutOrStdout(), "pocket %s\n", formatVersion(buildInfo))
	},
}

// SetBuildInfo records the version stamped in by the linker.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

func formatVersion(info BuildInfo) string {
	version := info.Version
	if version == "" {
		version = "dev"
	}
	commit := info.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := info.Date
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// Execute runs the root command.
func Execute() error {
	helpOnce.Do(func() {
		for _, c := range rootCmd.Commands() {
			walkCommands(c, enrichParentLong)
		}
	})

	err := rootCmd.Execute()
	if err != nil {
		// Format and print error
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error. Wallet refusals
// exit like authorization failures.
func ExitCode(err error) int {
	switch provider.CodeOf(err) {
	case provider.CodeUserRejected, provider.CodeUnauthorized:
		return pocketerr.ExitAuth
	}
	return pocketerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	configPath := config.Path(config.ExpandHome(home))
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		cfg = config.Defaults()
		cfg.Home = home
	}

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize logger
	logger, err = config.NewLoggerFromConfig(cfg)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}
	logger.Debug("config: %s", cfg)

	// Initialize formatter
	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	formatter = output.NewFormatter(explicitFormat, os.Stdout).WithColor(cfg.Output.Color != "never")

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// needsWallet reports whether cmd or one of its parents is annotated as
// needing the wallet stack.
func needsWallet(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationWallet] == "true" {
			return true
		}
	}
	return false
}

// walletAnnotation is attached to commands that talk to the wallet.
func walletAnnotation() map[string]string {
	return map[string]string{annotationWallet: "true"}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "pocket data directory (default: ~/.pocket)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve wallet prompts without asking")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupSession, Title: "Session:"},
		&cobra.Group{ID: groupWallet, Title: "Wallet Operations:"},
		&cobra.Group{ID: groupKeys, Title: "Keys:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)

	rootCmd.AddCommand(versionCmd)
}
