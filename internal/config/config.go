package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"go.treestore/internal/logger"
	"go.treestore/internal/storage"
)

type Config struct {
	Addr        string `yaml:"addr"`
	Home        string `yaml:"home"`
	DataDir     string `yaml:"data_dir"`
	LogDir      string `yaml:"log_dir"`
	UserFile    string `yaml:"user_file"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Commands per second allowed on one connection, 0 disables the limit
	RateLimit float64 `yaml:"rate_limit"`

	EnableTLS bool   `yaml:"enable_tls"`
	TLSCert   string `yaml:"tls_cert"`
	TLSKey    string `yaml:"tls_key"`

	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// The page size is fixed at storage.PageSize, files do not record it
type StorageConfig struct {
	MinFillPercent float64 `yaml:"min_fill_percent"`
	MaxFillPercent float64 `yaml:"max_fill_percent"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default builds the configuration used when no config.yaml overrides it
func Default(p *Paths) *Config {
	return &Config{
		Addr:      "127.0.0.1:57083",
		Home:      p.Home,
		DataDir:   p.DataDir,
		LogDir:    p.LogDir,
		UserFile:  p.UserFile,
		RateLimit: 100,
		Storage: StorageConfig{
			MinFillPercent: storage.DefaultOptions.MinFillPercent,
			MaxFillPercent: storage.DefaultOptions.MaxFillPercent,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func LoadConfig(homeOverride, configOverride string) (*Config, error) {
	paths, err := ResolvePaths(homeOverride, configOverride)
	if err != nil {
		return nil, err
	}

	cfg := Default(paths)

	if f, err := os.Open(paths.Config); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", paths.Config, err)
		}
	} else if configOverride != "" {
		// an explicit --config must exist
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) StorageOptions() *storage.Options {
	return &storage.Options{
		PageSize:       storage.PageSize,
		MinFillPercent: c.Storage.MinFillPercent,
		MaxFillPercent: c.Storage.MaxFillPercent,
	}
}

func (c *Config) LogLevel() logger.Level {
	return logger.ParseLevel(c.Log.Level)
}

func (c *Config) Validate() error {
	if err := c.StorageOptions().Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit %v is negative", c.RateLimit)
	}
	if c.EnableTLS && (c.TLSCert == "" || c.TLSKey == "") {
		return fmt.Errorf("enable_tls needs tls_cert and tls_key")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format %q, want console or json", c.Log.Format)
	}
	return nil
}
