package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/config"
	"github.com/mrz1836/pocket/internal/output"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	Long:    `View and modify pocket configuration settings.`,
	GroupID: groupConfig,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.pocket/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  pocket config init
  pocket --home ~/.pocket-testnet config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after environment and flag overrides.`,
	Example: `  pocket config show
  pocket config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its dot-separated path, such as
network.target or logging.level.`,
	Example: `  pocket config get network.target
  pocket config get history.default_limit`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its dot-separated path. The new
configuration is validated before the file is written.`,
	Example: `  pocket config set network.target bsc-testnet
  pocket config set network.rpc https://bsc-dataseed.bnbchain.org
  pocket config set output.default_format json`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

// configKey reads and writes one scalar setting.
type configKey struct {
	get func(c *config.Config) string
	set func(c *config.Config, value string) error
}

// configKeys lists every path config get and set accept.
//
//nolint:gochecknoglobals // static lookup table
var configKeys = map[string]configKey{
	"home": {
		get: func(c *config.Config) string { return c.Home },
		set: func(c *config.Config, v string) error { c.Home = v; return nil },
	},
	"network.target": {
		get: func(c *config.Config) string { return c.Network.Target },
		set: func(c *config.Config, v string) error {
			return setOneOf(&c.Network.Target, v, "bsc", "bsc-testnet")
		},
	},
	"network.rpc": {
		get: func(c *config.Config) string { return c.Network.RPC },
		set: func(c *config.Config, v string) error { c.Network.RPC = config.CleanURL(v); return nil },
	},
	"network.rate_per_second": {
		get: func(c *config.Config) string { return strconv.FormatFloat(c.Network.RatePerSecond, 'f', -1, 64) },
		set: func(c *config.Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 {
				return invalidValue(v, "a positive number")
			}
			c.Network.RatePerSecond = f
			return nil
		},
	},
	"network.burst": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Network.Burst) },
		set: func(c *config.Config, v string) error { return setInt(&c.Network.Burst, v, 1, 0) },
	},
	"wallet.identity": {
		get: func(c *config.Config) string { return c.Wallet.Identity },
		set: func(c *config.Config, v string) error {
			return setOneOf(&c.Wallet.Identity, v, "tokenpocket", "metamask", "safepal", "none")
		},
	},
	"wallet.key_file": {
		get: func(c *config.Config) string { return c.Wallet.KeyFile },
		set: func(c *config.Config, v string) error { c.Wallet.KeyFile = v; return nil },
	},
	"history.default_limit": {
		get: func(c *config.Config) string { return strconv.Itoa(c.History.DefaultLimit) },
		set: func(c *config.Config, v string) error { return setInt(&c.History.DefaultLimit, v, 1, 100) },
	},
	"metrics.addr": {
		get: func(c *config.Config) string { return c.Metrics.Addr },
		set: func(c *config.Config, v string) error { c.Metrics.Addr = v; return nil },
	},
	"output.default_format": {
		get: func(c *config.Config) string { return c.Output.DefaultFormat },
		set: func(c *config.Config, v string) error {
			return setOneOf(&c.Output.DefaultFormat, v, "text", "json", "auto")
		},
	},
	"output.color": {
		get: func(c *config.Config) string { return c.Output.Color },
		set: func(c *config.Config, v string) error {
			return setOneOf(&c.Output.Color, v, "auto", "always", "never")
		},
	},
	"output.verbose": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return invalidValue(v, "true or false")
			}
			c.Output.Verbose = b
			return nil
		},
	},
	"logging.level": {
		get: func(c *config.Config) string { return c.Logging.Level },
		set: func(c *config.Config, v string) error {
			return setOneOf(&c.Logging.Level, v, "off", "error", "debug")
		},
	},
	"logging.file": {
		get: func(c *config.Config) string { return c.Logging.File },
		set: func(c *config.Config, v string) error { c.Logging.File = v; return nil },
	},
	"logging.max_size_mb": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Logging.MaxSizeMB) },
		set: func(c *config.Config, v string) error { return setInt(&c.Logging.MaxSizeMB, v, 0, 0) },
	},
	"logging.max_backups": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Logging.MaxBackups) },
		set: func(c *config.Config, v string) error { return setInt(&c.Logging.MaxBackups, v, 0, 0) },
	},
	"logging.max_age_days": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Logging.MaxAgeDays) },
		set: func(c *config.Config, v string) error { return setInt(&c.Logging.MaxAgeDays, v, 0, 0) },
	},
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.GetHome())

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return pocketerr.WithSuggestion(
			pocketerr.WithDetails(pocketerr.ErrGeneral, map[string]string{"path": configPath}),
			"Configuration already exists. Use --force to overwrite",
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	output.Success(w, "Configuration initialized at %s", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - network.target: bsc or bsc-testnet")
	outln(w, "  - network.rpc: your own BSC JSON-RPC endpoint (optional)")
	outln(w, "  - wallet.identity: which wallet app the local wallet presents as")
	outln(w, "  - tokens: the BEP-20 tokens of your portfolio")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if formatter.Format() == output.FormatJSON {
		return displayConfigJSON(w, cfg)
	}
	return displayConfigText(w, cfg)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]

	if _, err := getConfigValue(cfg, path); err != nil {
		return err
	}

	// Edit the file, not the effective config, so overrides are not persisted.
	configPath := config.Path(cfg.GetHome())
	currentCfg, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		currentCfg = config.Defaults()
		currentCfg.Home = cfg.Home
	}

	if err := setConfigValue(currentCfg, path, value); err != nil {
		return err
	}
	if err := currentCfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(currentCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	output.Success(cmd.OutOrStdout(), "Set %s = %s", path, value)
	return nil
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	key, ok := configKeys[path]
	if !ok {
		return "", unknownConfigKey(path)
	}
	return key.get(c), nil
}

// setConfigValue sets a value in the config using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	key, ok := configKeys[path]
	if !ok {
		return unknownConfigKey(path)
	}
	return key.set(c, strings.TrimSpace(value))
}

func unknownConfigKey(path string) error {
	return pocketerr.WithSuggestion(
		pocketerr.WithDetails(pocketerr.ErrUnknownConfigKey, map[string]string{"path": path}),
		"Known paths: "+strings.Join(configPaths(), ", "),
	)
}

// configPaths returns the known paths in sorted order.
func configPaths() []string {
	paths := make([]string, 0, len(configKeys))
	for p := range configKeys {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func invalidValue(value, valid string) error {
	return pocketerr.WithDetails(
		pocketerr.ErrInvalidFormat,
		map[string]string{"value": value, "valid": valid},
	)
}

func setOneOf(dst *string, value string, valid ...string) error {
	for _, v := range valid {
		if value == v {
			*dst = value
			return nil
		}
	}
	return invalidValue(value, strings.Join(valid, ", "))
}

// setInt parses value into dst. A zero hi means no upper bound.
func setInt(dst *int, value string, lo, hi int) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		valid := fmt.Sprintf("an integer >= %d", lo)
		if hi > 0 {
			valid = fmt.Sprintf("an integer from %d to %d", lo, hi)
		}
		return invalidValue(value, valid)
	}
	*dst = n
	return nil
}

// displayConfigText shows the config in text format.
func displayConfigText(w io.Writer, c *config.Config) error {
	outln(w, "Configuration:")
	outln(w)
	for _, path := range configPaths() {
		value := configKeys[path].get(c)
		if value == "" {
			value = "(not configured)"
		}
		out(w, "  %s: %s\n", path, value)
	}
	outln(w)
	outln(w, "Tokens:")
	for _, tok := range c.GetTokens() {
		out(w, "  %-6s %s (%d decimals)\n", tok.Symbol, tok.Address, tok.Decimals)
	}
	return nil
}

// displayConfigJSON shows the config in JSON format.
func displayConfigJSON(w io.Writer, c *config.Config) error {
	type configJSON struct {
		Version  int               `json:"version"`
		Settings map[string]string `json:"settings"`
		Tokens   any               `json:"tokens"`
	}

	settings := make(map[string]string, len(configKeys))
	for path, key := range configKeys {
		settings[path] = key.get(c)
	}
	return writeJSON(w, configJSON{
		Version:  c.Version,
		Settings: settings,
		Tokens:   c.GetTokens(),
	})
}
