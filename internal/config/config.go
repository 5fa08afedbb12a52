// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads runtime configuration from a config file, the
// environment, and an optional .env file, in ascending precedence for the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ListIDs carries the remote list identifier for each local table.
type ListIDs struct {
	Usage       string `mapstructure:"usage"`
	StockChecks string `mapstructure:"stock_checks"`
	Production  string `mapstructure:"production"`
	Debris      string `mapstructure:"debris"`
	Sales       string `mapstructure:"sales"`
	Payments    string `mapstructure:"payments"`
	Machines    string `mapstructure:"machines"`
}

// Config is the full runtime configuration.
type Config struct {
	DatabasePath   string  `mapstructure:"database_path"`
	SiteURL        string  `mapstructure:"site_url"`
	AccessToken    string  `mapstructure:"access_token"`
	DeliveryMarker string  `mapstructure:"delivery_marker"`
	Lists          ListIDs `mapstructure:"lists"`
}

// Load reads configuration. A .env file in the working directory is loaded
// first if present (it only fills variables not already set), then a YAML
// config file (explicit path, or quarrylog.yaml in the working directory),
// then QUARRYLOG_* environment variables on top.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	v := viper.New()
	v.SetDefault("database_path", "quarrylog.db")
	v.SetDefault("delivery_marker", "livraison")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("quarrylog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("QUARRYLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
		// no config file, env and defaults carry everything
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database_path is required")
	}
	return nil
}

// RequireRemote checks the fields that only matter for networked commands,
// so purely local commands keep working without a site configured.
func (c *Config) RequireRemote() error {
	if c.SiteURL == "" {
		return fmt.Errorf("config: site_url is required for remote operations")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("config: access_token is required for remote operations")
	}
	return nil
}
