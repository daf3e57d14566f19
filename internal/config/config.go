package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultConfigPath = ".traveldraft/config.json"
)

// Config represents the JSON config structure.
type Config struct {
	// URLRoot prefixes photo and travel URLs; empty means the data root's name.
	URLRoot         string   `json:"urlRoot"`
	ClusterDistance float64  `json:"clusterDistance"`
	Workers         int      `json:"workers"`
	EnvFiles        []string `json:"envFiles"`

	Upload  Upload  `json:"upload"`
	Geocode Geocode `json:"geocode"`
}

// Upload tunes the Cloudinary uploader.
type Upload struct {
	MaxFileSizeMB     float64 `json:"maxFileSizeMB"`
	TimeoutSeconds    int     `json:"timeoutSeconds"`
	MaxRetries        int     `json:"maxRetries"`
	RetryCooldown     float64 `json:"retryCooldown"`
	RetryExponent     float64 `json:"retryExponent"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
}

// Geocode tunes the reverse geocoder used to name clusters.
type Geocode struct {
	Endpoint          string  `json:"endpoint"`
	UserAgent         string  `json:"userAgent"`
	Language          string  `json:"language"`
	Zoom              int     `json:"zoom"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	TimeoutSeconds    int     `json:"timeoutSeconds"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ClusterDistance: 0.005,
		Workers:         1,
		EnvFiles:        []string{".env.dev", ".env"},
		Upload: Upload{
			MaxFileSizeMB:     10,
			TimeoutSeconds:    120,
			MaxRetries:        3,
			RetryCooldown:     1,
			RetryExponent:     2,
			RequestsPerSecond: 2,
		},
		Geocode: Geocode{
			Endpoint:          "https://nominatim.openstreetmap.org/reverse",
			UserAgent:         "traveldraft",
			Language:          "en",
			Zoom:              14,
			RequestsPerSecond: 1,
			TimeoutSeconds:    30,
		},
	}
}

// Read loads the config at path, or ~/.traveldraft/config.json when path is
// empty. A missing file yields the defaults; fields absent from the file keep
// their default values.
func Read(path string) (Config, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, DefaultConfigPath)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Reset invalid values to defaults
	def := Default()
	if cfg.ClusterDistance <= 0 {
		cfg.ClusterDistance = def.ClusterDistance
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Upload.MaxFileSizeMB <= 0 {
		cfg.Upload.MaxFileSizeMB = def.Upload.MaxFileSizeMB
	}
	if cfg.Upload.TimeoutSeconds <= 0 {
		cfg.Upload.TimeoutSeconds = def.Upload.TimeoutSeconds
	}
	if cfg.Upload.MaxRetries < 0 {
		cfg.Upload.MaxRetries = def.Upload.MaxRetries
	}
	if cfg.Upload.RequestsPerSecond <= 0 {
		cfg.Upload.RequestsPerSecond = def.Upload.RequestsPerSecond
	}
	if cfg.Geocode.RequestsPerSecond <= 0 {
		cfg.Geocode.RequestsPerSecond = def.Geocode.RequestsPerSecond
	}
	if cfg.Geocode.TimeoutSeconds <= 0 {
		cfg.Geocode.TimeoutSeconds = def.Geocode.TimeoutSeconds
	}

	return cfg, nil
}

// UploadTimeout is the per-call upload deadline.
func (c Config) UploadTimeout() time.Duration {
	return time.Duration(c.Upload.TimeoutSeconds) * time.Second
}

// MaxFileSize is the upload size above which the aggressive profile is used.
func (c Config) MaxFileSize() int64 {
	return int64(c.Upload.MaxFileSizeMB * 1024 * 1024)
}
