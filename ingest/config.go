package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full venuery configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	DBPath   string         `yaml:"db_path"`
	Locale   LocaleConfig   `yaml:"locale"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sources  SourcesConfig  `yaml:"sources"`
}

// LocaleConfig describes the target locale candidates are validated against.
type LocaleConfig struct {
	City     string   `yaml:"city"`
	Country  string   `yaml:"country"`
	Denylist []string `yaml:"denylist"` // wrong-locale title keywords
}

// PipelineConfig tunes the per-term ingestion loop.
type PipelineConfig struct {
	ImagesPerItem int `yaml:"images_per_item"` // target images per staging item
	CrawlDelayMS  int `yaml:"crawl_delay_ms"`  // fixed delay before each crawl call
	MaxContentLen int `yaml:"max_content_len"` // enriched markdown cap in runes
}

// SourcesConfig carries external-service credentials. Empty values switch
// each adapter into its offline mode (fixtures, no-op crawl, placeholders).
type SourcesConfig struct {
	PlacesAPIKey    string `yaml:"places_api_key"`
	PlacesBaseURL   string `yaml:"places_base_url"`
	CrawlCredential string `yaml:"crawl_credential"`
	StockAccessKey  string `yaml:"stock_access_key"`
	StockBaseURL    string `yaml:"stock_base_url"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "venuery.db",
		Locale: LocaleConfig{
			City:    "Istanbul",
			Country: "Turkey",
			Denylist: []string{
				"paris", "london", "rome", "athens",
				"dubai", "barcelona", "cairo",
			},
		},
		Pipeline: PipelineConfig{
			ImagesPerItem: 12,
			CrawlDelayMS:  1000,
			MaxContentLen: 4000,
		},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Locale.City == "" {
		return fmt.Errorf("locale.city is required")
	}
	if c.Pipeline.ImagesPerItem <= 0 {
		return fmt.Errorf("pipeline.images_per_item must be > 0")
	}
	if c.Pipeline.CrawlDelayMS < 0 {
		return fmt.Errorf("pipeline.crawl_delay_ms must be >= 0")
	}
	if c.Pipeline.MaxContentLen <= 0 {
		return fmt.Errorf("pipeline.max_content_len must be > 0")
	}
	return nil
}
