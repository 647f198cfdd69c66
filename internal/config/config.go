// Package config reads the service identity document.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServiceName string `yaml:"SERVICE_NAME"`
	APIVersion  string `yaml:"API_VERSION"`
}

var (
	ErrMissingServiceName = errors.New("config: SERVICE_NAME is required")
	ErrMissingAPIVersion  = errors.New("config: API_VERSION is required")
)

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config.ServiceName = strings.Trim(strings.TrimSpace(config.ServiceName), "/")
	config.APIVersion = strings.TrimSpace(config.APIVersion)
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.APIVersion == "" {
		return ErrMissingAPIVersion
	}
	return nil
}

// BasePath is /{SERVICE_NAME}/v{API_VERSION}.
func (c *Config) BasePath() string {
	return fmt.Sprintf("/%s/v%s", c.ServiceName, c.APIVersion)
}

func (c *Config) PredictPath() string {
	return c.BasePath() + "/predict"
}
