// Package config loads and validates the siteupdate run configuration:
// env vars and an optional siteupdate.yaml layered over built-in
// defaults, the way the teacher's config.LoadConfig layers ST_ env vars
// over a YAML file for the game client.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full resolved configuration for one siteupdate run,
// bound from CLI flags by cmd/siteupdate and layered with viper.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig holds every filesystem input/output named in spec §6.
type PathsConfig struct {
	DataPath        string `mapstructure:"data_path" validate:"required"`
	SystemsFile     string `mapstructure:"systems_file" validate:"required"`
	UserListPath    string `mapstructure:"user_list_file_path"`
	UserListExt     string `mapstructure:"user_list_extension"`
	DatabaseName    string `mapstructure:"database_name"`
	LogFilePath     string `mapstructure:"log_file_path" validate:"required"`
	CSVStatFilePath string `mapstructure:"csv_stat_file_path"`
	GraphFilePath   string `mapstructure:"graph_file_path"`
	NMPMergePath    string `mapstructure:"nmp_merge_path"`
}

// SplitRegion names the optional split-region sanity-check triple.
type SplitRegion struct {
	Path       string `mapstructure:"path"`
	Suffix     string `mapstructure:"suffix"`
	RegionCode string `mapstructure:"region_code"`
}

// RunConfig holds the behavioral flags from spec §6.
type RunConfig struct {
	Users           []string    `mapstructure:"users"`
	NumThreads      int         `mapstructure:"num_threads" validate:"min=1"`
	TimePrecision   int         `mapstructure:"time_precision"`
	ErrorCheck      bool        `mapstructure:"error_check"`
	SkipGraphs      bool        `mapstructure:"skip_graphs"`
	ColocationLimit int         `mapstructure:"colocation_limit" validate:"min=1"`
	NMPThreshold    float64     `mapstructure:"nmp_threshold" validate:"gt=0"`
	SplitRegion     SplitRegion `mapstructure:"split_region"`
	VerifyLoad      bool        `mapstructure:"verify_load"`
}

// LoggingConfig controls internal/obslog's run log and metrics dump.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// SetDefaults fills in every value spec §6 gives a default for.
func SetDefaults(cfg *Config) {
	if cfg.Run.NumThreads == 0 {
		cfg.Run.NumThreads = 4
	}
	if cfg.Run.ColocationLimit == 0 {
		cfg.Run.ColocationLimit = 50
	}
	if cfg.Run.NMPThreshold == 0 {
		cfg.Run.NMPThreshold = 0.0005
	}
	if cfg.Paths.UserListExt == "" {
		cfg.Paths.UserListExt = ".list"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
}

// Load layers environment variables (SITEUPDATE_ prefix) over an
// optional siteupdate.yaml over built-in defaults. It does not validate
// the result; the caller validates once command-line flags are layered
// on top. configPath may be empty to search the default locations.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("siteupdate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/siteupdate")
	}

	v.SetEnvPrefix("SITEUPDATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Validation happens after the caller layers CLI flags on top (several
	// required paths, like data-path, are typically flag-only), not here.
	return &cfg, nil
}
