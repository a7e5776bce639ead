package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/wemcdonald/sqlaccess/pkg/auth"
)

const (
	maxWalkDepth = 25
)

// Config represents the sqlaccess configuration from sqlaccess.yaml.
type Config struct {
	Dialect        string `mapstructure:"dialect" yaml:"dialect"`
	PageSize       int    `mapstructure:"page_size" yaml:"page_size"`
	BlockWildcards bool   `mapstructure:"block_wildcards" yaml:"block_wildcards"`

	Log   LogConfig   `mapstructure:"log" yaml:"log"`
	Store StoreConfig `mapstructure:"store" yaml:"store"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// StoreConfig selects where permission documents are read from.
type StoreConfig struct {
	// Driver is memory, sqlite3 or pgx.
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
	Table  string `mapstructure:"table" yaml:"table"`
	// PermissionsDir is loaded into the memory store.
	PermissionsDir string `mapstructure:"permissions_dir" yaml:"permissions_dir"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SQLACCESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "postgresql")
	v.SetDefault("page_size", auth.DefaultPageSize)
	v.SetDefault("block_wildcards", false)

	v.SetDefault("log.level", "WARN")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", auth.DefaultDatasetTable)
	v.SetDefault("store.permissions_dir", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for sqlaccess.yaml or sqlaccess.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"sqlaccess.yaml", "sqlaccess.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// OpenStore builds the dataset store the config selects. The returned
// closer releases it.
func (c *Config) OpenStore(ctx context.Context) (auth.DatasetStore, func() error, error) {
	noop := func() error { return nil }

	switch c.Store.Driver {
	case "", "memory":
		store := auth.NewMemoryStore()
		if c.Store.PermissionsDir != "" {
			if err := store.LoadDir(c.Store.PermissionsDir); err != nil {
				return nil, noop, err
			}
		}
		return store, noop, nil
	case "sqlite3", "pgx":
		store, err := c.OpenSQLStore(ctx)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
}

// OpenSQLStore opens the configured SQL store and makes sure its table exists.
func (c *Config) OpenSQLStore(ctx context.Context) (*auth.SQLStore, error) {
	if c.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver)
	}
	store, err := auth.OpenSQLStore(c.Store.Driver, c.Store.DSN, c.Store.Table)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
