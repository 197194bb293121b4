// Package config loads lildb's runtime configuration: the data root
// directory, listen address, and database-name limits.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/lildb-project/lildb/internal/lilderr"
)

const (
	// DefaultMaxNameLength is the default limit on a database name's
	// length, matching the storage layer's directory-name constraint; it
	// can be configured up to DefaultMaxNameLengthConfig.
	DefaultMaxNameLength = 249
	// DefaultMaxNameLengthConfig is the absolute ceiling an operator's
	// configured MaxNameLength cannot exceed.
	DefaultMaxNameLengthConfig = 252

	DefaultListenAddr = "::"
	DefaultListenPort = 11108

	rootEnvVar = "LILDB_ROOT"
	addrEnvVar = "LILDB_ADDR"
)

// Config is lildb's resolved runtime configuration.
type Config struct {
	Root string `mapstructure:"root"`

	Server struct {
		ListenAddr string `mapstructure:"listen_addr"`
		ListenPort int    `mapstructure:"listen_port"`
	} `mapstructure:"server"`

	Database struct {
		MaxNameLength       int    `mapstructure:"max_name_length"`
		MaxNameLengthConfig int    `mapstructure:"max_name_length_config"`
		EngineVersion       string `mapstructure:"engine_version"`
	} `mapstructure:"database"`
}

// Load reads path (a YAML file) and layers the LILDB_ROOT / LILDB_ADDR
// environment variables on top, the way the original config layered
// NOVASQL_ADDR on top of its file-based config. path may be empty, in
// which case only environment variables and defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.listen_addr", DefaultListenAddr)
	v.SetDefault("server.listen_port", DefaultListenPort)
	v.SetDefault("database.max_name_length", DefaultMaxNameLength)
	v.SetDefault("database.max_name_length_config", DefaultMaxNameLengthConfig)
	v.SetDefault("database.engine_version", "lildb-1")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, lilderr.Wrap(lilderr.Config, err, "reading config file %q", path)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, lilderr.Wrap(lilderr.Config, err, "decoding config")
	}

	if root := os.Getenv(rootEnvVar); root != "" {
		cfg.Root = root
	}
	if addr := os.Getenv(addrEnvVar); addr != "" {
		cfg.Server.ListenAddr = addr
	}

	if cfg.Database.MaxNameLength > cfg.Database.MaxNameLengthConfig {
		return nil, lilderr.New(lilderr.Config,
			"database.max_name_length (%d) exceeds database.max_name_length_config (%d)",
			cfg.Database.MaxNameLength, cfg.Database.MaxNameLengthConfig)
	}

	if cfg.Root == "" {
		return nil, lilderr.New(lilderr.Config, "no data root configured: set %s or the root config key", rootEnvVar)
	}

	return &cfg, nil
}

// EnsureDirs creates the data root if absent, matching the original's
// create-if-absent directory validation. No subdirectories are created.
func EnsureDirs(cfg *Config) error {
	if _, err := os.Stat(cfg.Root); err != nil {
		if !os.IsNotExist(err) {
			return lilderr.Wrap(lilderr.IO, err, "statting data root %q", cfg.Root)
		}
		if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
			return lilderr.Wrap(lilderr.IO, err, "creating data root %q", cfg.Root)
		}
	}
	return nil
}
