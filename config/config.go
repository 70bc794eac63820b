// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type StartType int

const (
	// Tells decorctl to read commands from a repl
	START_REPL = StartType(iota)
	// Tells decorctl to execute StartCommand and exit
	START_SINGLE_COMMAND
	// Tells decorctl to only run the event loop
	START_NONE
)

type Config struct {
	// Name of the decoration plugin to prefer. Empty picks the highest priority one
	Plugin string `envconfig:"PLUGIN" toml:"plugin,omitempty" yaml:"plugin,omitempty"`
	// Always use the undecorated fallback
	DisableDecorations bool   `envconfig:"DISABLE_DECORATIONS" toml:"disable_decorations,omitempty" yaml:"disable_decorations,omitempty"`
	LogLevel           string `envconfig:"LOG_LEVEL" toml:"log_level,omitempty" yaml:"log_level,omitempty"`

	Border BorderConfig `envconfig:"BORDER" toml:"border" yaml:"border"`
	Shell  ShellConfig  `envconfig:"SHELL" toml:"shell" yaml:"shell"`
}

// Theme of the border plugin
type BorderConfig struct {
	TitleHeight  int `envconfig:"TITLE_HEIGHT" toml:"title_height,omitempty" yaml:"title_height,omitempty"`
	ShadowMargin int `envconfig:"SHADOW_MARGIN" toml:"shadow_margin,omitempty" yaml:"shadow_margin,omitempty"`
	ButtonWidth  int `envconfig:"BUTTON_WIDTH" toml:"button_width,omitempty" yaml:"button_width,omitempty"`

	// Colours are #rrggbb or #rrggbbaa
	ActiveTitleColor   string `envconfig:"ACTIVE_TITLE_COLOR" toml:"active_title_color,omitempty" yaml:"active_title_color,omitempty"`
	InactiveTitleColor string `envconfig:"INACTIVE_TITLE_COLOR" toml:"inactive_title_color,omitempty" yaml:"inactive_title_color,omitempty"`
	TitleTextColor     string `envconfig:"TITLE_TEXT_COLOR" toml:"title_text_color,omitempty" yaml:"title_text_color,omitempty"`
	ButtonColor        string `envconfig:"BUTTON_COLOR" toml:"button_color,omitempty" yaml:"button_color,omitempty"`
	ShadowColor        string `envconfig:"SHADOW_COLOR" toml:"shadow_color,omitempty" yaml:"shadow_color,omitempty"`
}

type ShellConfig struct {
	StartType StartType `envconfig:"START_TYPE" toml:"start_type,omitempty" yaml:"start_type,omitempty"`
	// What command to execute on start. Only matters if StartType is set to START_SINGLE_COMMAND
	StartCommand string `envconfig:"START_COMMAND" toml:"start_command,omitempty" yaml:"start_command,omitempty"`
	// Let the built-in compositor tile windows instead of stacking them
	Tiling bool `envconfig:"TILING" toml:"tiling,omitempty" yaml:"tiling,omitempty"`
}

var ErrInvalidColor = errors.New("invalid colour")

func Default() Config {
	return Config{
		LogLevel: "info",
		Border: BorderConfig{
			TitleHeight:        24,
			ShadowMargin:       24,
			ButtonWidth:        32,
			ActiveTitleColor:   "#303030",
			InactiveTitleColor: "#6a6a6a",
			TitleTextColor:     "#ffffff",
			ButtonColor:        "#d0d0d0",
			ShadowColor:        "#30303080",
		},
	}
}

// fillDefaults replaces unset values with the built-in ones
func (c *Config) fillDefaults() {
	def := Default()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	b, d := &c.Border, def.Border
	if b.TitleHeight == 0 {
		b.TitleHeight = d.TitleHeight
	}
	if b.ShadowMargin == 0 {
		b.ShadowMargin = d.ShadowMargin
	}
	if b.ButtonWidth == 0 {
		b.ButtonWidth = d.ButtonWidth
	}
	for _, pair := range []struct {
		dst *string
		src string
	}{
		{&b.ActiveTitleColor, d.ActiveTitleColor},
		{&b.InactiveTitleColor, d.InactiveTitleColor},
		{&b.TitleTextColor, d.TitleTextColor},
		{&b.ButtonColor, d.ButtonColor},
		{&b.ShadowColor, d.ShadowColor},
	} {
		if *pair.dst == "" {
			*pair.dst = pair.src
		}
	}
}

func (c *Config) Validate() error {
	if c.Border.TitleHeight < 0 || c.Border.ShadowMargin < 0 || c.Border.ButtonWidth < 0 {
		return fmt.Errorf("border sizes must not be negative: title %d, shadow %d, button %d",
			c.Border.TitleHeight, c.Border.ShadowMargin, c.Border.ButtonWidth)
	}
	for name, value := range map[string]string{
		"active_title_color":   c.Border.ActiveTitleColor,
		"inactive_title_color": c.Border.InactiveTitleColor,
		"title_text_color":     c.Border.TitleTextColor,
		"button_color":         c.Border.ButtonColor,
		"shadow_color":         c.Border.ShadowColor,
	} {
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Shell.StartType < START_REPL || c.Shell.StartType > START_NONE {
		return fmt.Errorf("unknown start type %d", c.Shell.StartType)
	}
	return nil
}

// ParseColor reads #rrggbb or #rrggbbaa
func ParseColor(value string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(value, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	raw, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
	}
	return color.NRGBA{
		R: uint8(raw >> 24),
		G: uint8(raw >> 16),
		B: uint8(raw >> 8),
		A: uint8(raw),
	}, nil
}
