// Package config loads the tunables of the embed, extract and detect pipeline.
//
// Configuration comes from one YAML file, named by the BTP_CONFIG environment
// variable or the --config flag. Values missing from the file keep their
// defaults, which reproduce the reference scoring and scan limits exactly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted by Load
const EnvVar = "BTP_CONFIG"

// Config is the master configuration
type Config struct {
	// Detection holds the steganalysis scoring thresholds.
	Detection DetectionThresholds `yaml:"detection"`

	// Extraction bounds the keyed extraction scan.
	Extraction ExtractionConfig `yaml:"extraction"`

	// Scan configures batch analysis of directories and URL lists.
	Scan ScanConfig `yaml:"scan"`

	// Server configures the HTTP gateway.
	Server ServerConfig `yaml:"server"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`
}

// DetectionThresholds contains the settings used to score an LSB distribution
type DetectionThresholds struct {
	DeviationThreshold float64 `yaml:"deviation_threshold"` // |ones ratio - 0.5| above which points accrue
	DeviationWeight    float64 `yaml:"deviation_weight"`    // points per unit of deviation above the threshold

	SequentialDivisor float64 `yaml:"sequential_divisor"` // equal-parity pairs above totalBytes/divisor are suspicious
	SequentialWeight  float64 `yaml:"sequential_weight"`

	LowVariance        float64 `yaml:"low_variance"` // average channel variance below this is suspicious
	LowVarianceWeight  float64 `yaml:"low_variance_weight"`
	HighVariance       float64 `yaml:"high_variance"` // average channel variance above this is suspicious
	HighVarianceWeight float64 `yaml:"high_variance_weight"`
}

// ExtractionConfig bounds extraction
type ExtractionConfig struct {
	// MaxBits caps the number of LSBs read while looking for the terminator.
	// Default: 8000 (twice the bits of a 500 character message)
	MaxBits int `yaml:"max_bits"`
}

// ScanConfig configures batch scans
type ScanConfig struct {
	// Workers is the number of files analyzed concurrently. Default: 4
	Workers int `yaml:"workers"`

	// DownloadDir receives files fetched from URLs. Default: btp_output/downloads
	DownloadDir string `yaml:"download_dir"`
}

// ServerConfig configures the HTTP gateway
type ServerConfig struct {
	// Addr is the listen address. Default: :8080
	Addr string `yaml:"addr"`

	// MaxUploadBytes limits multipart uploads. Default: 20 MiB
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Mode is the gin mode: debug, release or test. Default: release
	Mode string `yaml:"mode"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

// DefaultDetectionThresholds returns the reference scoring constants
func DefaultDetectionThresholds() DetectionThresholds {
	return DetectionThresholds{
		DeviationThreshold: 0.025,
		DeviationWeight:    1000,
		SequentialDivisor:  120,
		SequentialWeight:   25,
		LowVariance:        100,
		LowVarianceWeight:  15,
		HighVariance:       10000,
		HighVarianceWeight: 10,
	}
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Detection:  DefaultDetectionThresholds(),
		Extraction: ExtractionConfig{MaxBits: 500 * 8 * 2},
		Scan: ScanConfig{
			Workers:     4,
			DownloadDir: "btp_output/downloads",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 20 << 20,
			Mode:           "release",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file named by BTP_CONFIG, or returns the defaults when it is unset
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile overlays the YAML file at path onto the defaults and validates the result
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot work with
func (c *Config) Validate() error {
	var errs []error

	d := c.Detection
	if d.DeviationThreshold < 0 || d.DeviationThreshold >= 0.5 {
		errs = append(errs, fmt.Errorf("detection.deviation_threshold must be in [0, 0.5), got %v", d.DeviationThreshold))
	}
	if d.SequentialDivisor <= 0 {
		errs = append(errs, fmt.Errorf("detection.sequential_divisor must be positive, got %v", d.SequentialDivisor))
	}
	if d.LowVariance > d.HighVariance {
		errs = append(errs, fmt.Errorf("detection.low_variance (%v) exceeds high_variance (%v)", d.LowVariance, d.HighVariance))
	}
	if c.Extraction.MaxBits < 64 {
		errs = append(errs, fmt.Errorf("extraction.max_bits must be at least 64, got %d", c.Extraction.MaxBits))
	}
	if c.Scan.Workers < 1 {
		errs = append(errs, fmt.Errorf("scan.workers must be at least 1, got %d", c.Scan.Workers))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
