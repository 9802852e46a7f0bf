package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL     string `json:"api_base_url"`
	RequestTimeout int    `json:"request_timeout_seconds"`
}

func Default() Config {
	return Config{
		APIBaseURL:     "http://localhost:8080/api",
		RequestTimeout: 30,
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "taskdeck", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the config file at path, falling back to defaults when it does
// not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(config), nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return applyEnv(config), nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Timeout converts the configured request timeout to a duration
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

func applyEnv(cfg Config) Config {
	cfg.APIBaseURL = getEnv("TASKDECK_API_URL", cfg.APIBaseURL)
	cfg.RequestTimeout = getEnvAsInt("TASKDECK_TIMEOUT", cfg.RequestTimeout)
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
