// Package config loads run configuration from defaults, an optional YAML file
// and PAPERCRAWL_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pevans/papercrawl/catalog"
	"github.com/pevans/papercrawl/fetch"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// PAPERCRAWL_OUTPUT_DIR or PAPERCRAWL_SCOPE_MAX_PAPERS.
const EnvPrefix = "PAPERCRAWL"

// Config is the effective configuration of a crawl.
type Config struct {
	// OutputDir is the archive root. It is emptied at the start of a crawl.
	OutputDir string `mapstructure:"output_dir"`
	// IndexFile is the CSV index path.
	IndexFile string `mapstructure:"index_file"`
	// LedgerDSN is the SQLite run history path. Empty disables the ledger.
	LedgerDSN string `mapstructure:"ledger_dsn"`
	// CatalogFile replaces the built-in catalog when set.
	CatalogFile       string        `mapstructure:"catalog_file"`
	LogLevel          string        `mapstructure:"log_level"`
	UserAgent         string        `mapstructure:"user_agent"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	// ServeAddr is the listen address of the history API.
	ServeAddr string        `mapstructure:"serve_addr"`
	Scope     catalog.Scope `mapstructure:"scope"`
}

// DefaultPath returns ~/.papercrawl/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".papercrawl", "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "papers")
	v.SetDefault("index_file", "papers.csv")
	v.SetDefault("ledger_dsn", "papercrawl.db")
	v.SetDefault("catalog_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("user_agent", fetch.DefaultUserAgent)
	v.SetDefault("fetch_timeout", 60*time.Second)
	v.SetDefault("requests_per_second", 0.0)
	v.SetDefault("serve_addr", "127.0.0.1:8080")
	v.SetDefault("scope.groups", []string{})
	v.SetDefault("scope.years", []string{})
	v.SetDefault("scope.max_pages", 0)
	v.SetDefault("scope.max_papers", 0)
}

// Load reads the configuration. An empty path means DefaultPath. A missing
// file is not an error; a file that exists but cannot be parsed is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir must not be empty")
	}
	if strings.TrimSpace(c.IndexFile) == "" {
		return errors.New("index_file must not be empty")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("invalid fetch_timeout: %s", c.FetchTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid requests_per_second: %v", c.RequestsPerSecond)
	}
	if c.Scope.MaxPages < 0 || c.Scope.MaxPapers < 0 {
		return errors.New("scope limits must not be negative")
	}
	return nil
}
