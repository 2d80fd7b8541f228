// Package config loads and validates audproof's YAML configuration.
//
// Values in the file override the built-in defaults; command-line flags
// override both. Validation happens once at load time so every component
// downstream can trust the values it is handed.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config carries every tunable of a proof deployment.
type Config struct {
	// DatabasePath is the SQLite contribution ledger.
	DatabasePath string `yaml:"database_path" validate:"required"`

	// SimilarityThreshold is the duplicate cutoff for the approximate
	// scan; a score at or above it classifies the submission as a
	// similar duplicate.
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`

	// ScanBatchSize bounds how many stored contributions the scan
	// materializes per store round trip.
	ScanBatchSize int `yaml:"scan_batch_size" validate:"gte=1"`

	// QualityThreshold is the strict lower bound quality must exceed.
	QualityThreshold float64 `yaml:"quality_threshold" validate:"gte=0,lte=1"`

	// DigestCacheSize bounds the in-process LRU over confirmed-duplicate
	// digests; 0 disables the cache.
	DigestCacheSize int `yaml:"digest_cache_size" validate:"gte=0"`

	// BanAfterFailedChecks bans a user at this failed-authenticity count;
	// 0 disables banning.
	BanAfterFailedChecks int `yaml:"ban_after_failed_checks" validate:"gte=0"`

	// DLPID identifies the data liquidity pool in proof metadata.
	DLPID int `yaml:"dlp_id"`

	// InputDir and OutputDir are the submission inbox and the results
	// drop directory.
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	// FpcalcBinary overrides the Chromaprint executable looked up on PATH.
	FpcalcBinary string `yaml:"fpcalc_binary"`

	// AuthenticityURL and QualityURL point at the inference services.
	// When empty, the static fallback values below are used instead.
	AuthenticityURL string `yaml:"authenticity_url" validate:"omitempty,url"`
	QualityURL      string `yaml:"quality_url" validate:"omitempty,url"`

	// StaticAuthenticity and StaticQuality are the pass-through values
	// used when the corresponding service URL is unset.
	StaticAuthenticity int     `yaml:"static_authenticity" validate:"gte=0,lte=1"`
	StaticQuality      float64 `yaml:"static_quality" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath:        "audproof.db",
		SimilarityThreshold: 0.8,
		ScanBatchSize:       100,
		QualityThreshold:    0.5,
		DigestCacheSize:     4096,
		StaticAuthenticity:  1,
		StaticQuality:       0.75,
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration's value ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
