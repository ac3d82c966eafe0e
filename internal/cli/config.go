package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL       = "http://localhost:8080/api"
	DefaultRetries      = 3
	DefaultRetryBackoff = 500 * time.Millisecond
	configFileName      = ".invoicectl.yaml"
)

// Config is the operator's local settings file.
type Config struct {
	APIURL       string        `yaml:"api_url"`
	Token        string        `yaml:"token,omitempty"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

func defaultConfig() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		Retries:      DefaultRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// DefaultConfigPath is ~/.invoicectl.yaml, or the working directory when the
// home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// LoadConfig reads path. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Retries < 1 {
		cfg.Retries = DefaultRetries
	}
	return cfg, nil
}

// SaveConfig writes cfg with owner-only permissions since it holds a token.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
