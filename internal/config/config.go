package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"FC_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"FC_DB_MAX_CONNS" default:"8"`

	CMSBaseURL  string `envconfig:"CMS_BASE_URL" required:"true"`
	CMSAPIToken string `envconfig:"CMS_API_TOKEN" default:""`

	ExtractEndpoint string `envconfig:"EXTRACT_ENDPOINT" default:"http://127.0.0.1:8844/v1/extract"`

	ScrapeUserAgent string `envconfig:"SCRAPE_USER_AGENT" default:""`

	SyncRatePerSec float64 `envconfig:"SYNC_RATE_PER_SEC" default:"10"`
	SyncBurst      int     `envconfig:"SYNC_BURST" default:"1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("FC_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("FC_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("FC_DB_MIN_CONNS (%d) cannot exceed FC_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if err := validateHTTPURL("CMS_BASE_URL", c.CMSBaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("EXTRACT_ENDPOINT", c.ExtractEndpoint); err != nil {
		return err
	}
	if c.SyncRatePerSec <= 0 {
		return fmt.Errorf("SYNC_RATE_PER_SEC must be > 0")
	}
	if c.SyncBurst < 1 {
		return fmt.Errorf("SYNC_BURST must be >= 1")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%s is required", name)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
