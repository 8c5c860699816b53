package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sessionsplice/pkg/logging"
)

const (
	userConfigDir  = ".config/sessionsplice"
	configFileName = "config.yaml"

	// EnvClientID overrides provider.clientId.
	EnvClientID = "SESSIONSPLICE_CLIENT_ID"
	// EnvClientSecret overrides provider.clientSecret.
	EnvClientSecret = "SESSIONSPLICE_CLIENT_SECRET"
)

// Package-level variables so tests can replace them.
var (
	osUserHomeDir = os.UserHomeDir
	osGetenv      = os.Getenv
)

// GetDefaultConfigPath returns the default configuration directory.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath, or from the default
// directory when configPath is empty. A missing file yields the defaults.
// Environment overrides are applied last.
func LoadConfig(configPath string) (Config, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		configPath = defaultPath
	}

	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig() // Start with default config

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, NewConfigurationError(configFilePath, "", "io", err.Error())
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, NewConfigurationError(configFilePath, "", "parse", err.Error())
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnvOverrides(&config)

	if err := config.Validate(); err != nil {
		return Config{}, NewConfigurationErrorWithDetails(configFilePath, "", "validation",
			"invalid configuration", err.Error(), nil)
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if v := osGetenv(EnvClientID); v != "" {
		config.Provider.ClientID = v
	}
	if v := osGetenv(EnvClientSecret); v != "" {
		config.Provider.ClientSecret = v
	}
}
