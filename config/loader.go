// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Prefix of the environment overrides, e.g. DECOR_BORDER_TITLE_HEIGHT
const EnvPrefix = "DECOR"

var ErrUnknownFormat = errors.New("unknown config file format")

// Load reads a TOML or YAML file, picked by extension, and applies
// environment overrides on top. An empty path only uses defaults and environment
func Load(path string) (*Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		switch filepath.Ext(path) {
		case ".toml":
			err = toml.Unmarshal(data, &cfg)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		default:
			err = ErrUnknownFormat
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.fillDefaults()

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"path":   path,
		"plugin": cfg.Plugin,
	}).Debugln("Loaded config")
	return &cfg, nil
}

// Locate finds the user's config file in the XDG config directories.
// Returns an empty path if there is none
func Locate() string {
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path, err := xdg.SearchConfigFile(filepath.Join("way2decor", name))
		if err == nil {
			return path
		}
	}
	return ""
}

// LoadDefault loads the located config file, or defaults if there is none
func LoadDefault() (*Config, error) {
	return Load(Locate())
}
