package config

import (
	"fmt"

	"go-civitai-mirror/internal/helpers"
	"go-civitai-mirror/internal/models"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

// Defaults applied when the config file omits a value. RetryDelay, MaxTries
// and MaxThreads mirror the original tool's defaults; the page cap and name
// length come from its safety constants.
const (
	DefaultSavePath             = "model_downloads"
	DefaultRetryDelay           = 10
	DefaultMaxTries             = 3
	DefaultMaxThreads           = 5
	DefaultMaxPages             = 1000
	DefaultApiClientTimeoutSec  = 60
	DefaultApiRequestsPerSecond = 2
)

// LoadConfig reads the TOML configuration from configFilePath and fills in
// defaults. A missing file is not fatal: every field has a usable default
// and flags can override the rest.
func LoadConfig(configFilePath string) (models.Config, error) {
	if configFilePath == "" {
		configFilePath = "config.toml"
	}
	var cfg models.Config
	if _, err := toml.DecodeFile(configFilePath, &cfg); err != nil {
		return ApplyDefaults(cfg), fmt.Errorf("error loading config file %s: %w", configFilePath, err)
	}
	log.Infof("Configuration loaded from %s", configFilePath)
	return ApplyDefaults(cfg), nil
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
func ApplyDefaults(cfg models.Config) models.Config {
	if cfg.SavePath == "" {
		cfg.SavePath = DefaultSavePath
	}
	if cfg.DownloadType == "" {
		cfg.DownloadType = "All"
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = DefaultMaxTries
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = DefaultMaxThreads
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.ApiClientTimeoutSec <= 0 {
		cfg.ApiClientTimeoutSec = DefaultApiClientTimeoutSec
	}
	if cfg.ApiRequestsPerSecond <= 0 {
		cfg.ApiRequestsPerSecond = DefaultApiRequestsPerSecond
	}
	if cfg.MaxNameLength <= 0 {
		cfg.MaxNameLength = helpers.MaxNameLength
	}
	return cfg
}
