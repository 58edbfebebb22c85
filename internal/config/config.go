package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VendorConfig is one whitelisted dealer domain.
type VendorConfig struct {
	Domain string   `yaml:"domain"`
	Trust  int      `yaml:"trust"`
	Seeds  []string `yaml:"seeds"`
}

// Config holds all application configuration.
type Config struct {
	Fred struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"fred"`
	Output struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"output"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
		CatalogCron  string `yaml:"catalog_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Vendors []VendorConfig `yaml:"vendors"`
	Proxy   string         `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Fred.APIKey = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Output.DataDir = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SNAPSHOT"); v != "" {
		cfg.Schedule.SnapshotCron = v
	}
	if v := os.Getenv("CRON_CATALOG"); v != "" {
		cfg.Schedule.CatalogCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Output.DataDir == "" {
		cfg.Output.DataDir = "data"
	}
	if cfg.Schedule.SnapshotCron == "" {
		cfg.Schedule.SnapshotCron = "0 0 7 * * *"
	}
	if cfg.Schedule.CatalogCron == "" {
		cfg.Schedule.CatalogCron = "0 30 7 * * 6"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/goldradar.db"
	}
	if len(cfg.Vendors) == 0 {
		cfg.Vendors = DefaultVendors()
	}

	return cfg, nil
}

// DefaultVendors is the built-in dealer whitelist used when the config file
// names none.
func DefaultVendors() []VendorConfig {
	return []VendorConfig{
		{Domain: "proaurum.de", Trust: 90},
		{Domain: "degussa-goldhandel.de", Trust: 90},
		{Domain: "heubach-edelmetalle.de", Trust: 90},
		{Domain: "philoro.de", Trust: 95, Seeds: []string{
			"https://philoro.de/shop/goldbarren",
			"https://philoro.de/shop/goldmuenzen-krugerrand",
			"https://philoro.de/shop/goldbarren-100g",
		}},
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Output.DataDir == "" {
		return fmt.Errorf("output.data_dir is required")
	}
	for i, v := range c.Vendors {
		if v.Domain == "" {
			return fmt.Errorf("vendors[%d].domain is required", i)
		}
		if v.Trust < 0 || v.Trust > 100 {
			return fmt.Errorf("vendors[%d].trust must be within 0..100", i)
		}
	}
	return nil
}
