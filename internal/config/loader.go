package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"envpin/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/envpin"
	projectConfigDir = ".envpin"
	configFileName   = "config.yaml"
)

// LoadConfig loads the envpin configuration by layering default, user, and project settings.
func LoadConfig() (EnvpinConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// user config is optional
		logging.Warn("Config", "could not determine user config path: %v", err)
	} else {
		config, err = overlayFile(config, userConfigPath)
		if err != nil {
			return EnvpinConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "could not determine project config path: %v", err)
	} else {
		config, err = overlayFile(config, projectConfigPath)
		if err != nil {
			return EnvpinConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
		}
	}

	return config, nil
}

// LoadConfigFile layers a single explicit file over the defaults, skipping
// the user and project layers.
func LoadConfigFile(path string) (EnvpinConfig, error) {
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return EnvpinConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return mergeConfigs(GetDefaultConfig(), overlay), nil
}

func overlayFile(base EnvpinConfig, path string) (EnvpinConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return EnvpinConfig{}, err
	}
	logging.Debug("Config", "applied %s", path)
	return mergeConfigs(base, overlay), nil
}

var getUserConfigPath = func() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads an EnvpinConfig from a YAML file.
func loadConfigFromFile(filePath string) (EnvpinConfig, error) {
	var config EnvpinConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return EnvpinConfig{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return EnvpinConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Only fields set
// in overlay replace base values.
func mergeConfigs(base, overlay EnvpinConfig) EnvpinConfig {
	merged := base

	if overlay.GlobalSettings.Manifest != "" {
		merged.GlobalSettings.Manifest = overlay.GlobalSettings.Manifest
	}
	if overlay.GlobalSettings.LogLevel != "" {
		merged.GlobalSettings.LogLevel = overlay.GlobalSettings.LogLevel
	}
	if overlay.GlobalSettings.Platform != "" {
		merged.GlobalSettings.Platform = overlay.GlobalSettings.Platform
	}

	if overlay.Registry.Index != "" {
		merged.Registry.Index = overlay.Registry.Index
	}
	if overlay.Registry.CacheSize != 0 {
		merged.Registry.CacheSize = overlay.Registry.CacheSize
	}

	if overlay.Test.Profile != "" {
		merged.Test.Profile = overlay.Test.Profile
	}
	if overlay.Test.Format != "" {
		merged.Test.Format = overlay.Test.Format
	}
	if overlay.Test.Suite != "" {
		merged.Test.Suite = overlay.Test.Suite
	}
	if overlay.Test.Output != "" {
		merged.Test.Output = overlay.Test.Output
	}

	return merged
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
