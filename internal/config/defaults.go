package config

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.pocket",
		Network: NetworkConfig{
			Target:        "bsc",
			RatePerSecond: 8,
			Burst:         16,
		},
		Wallet: WalletConfig{
			Identity: "tokenpocket",
			KeyFile:  "key.age",
		},
		History: HistoryConfig{
			DefaultLimit: 10,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
		},
		Logging: LoggingConfig{
			Level:      "error",
			File:       "pocket.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
