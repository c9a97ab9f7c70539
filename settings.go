// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment variables read by [*Settings.ApplyEnv].
const (
	EnvColor  = "LANCONSOLE_COLOR"
	EnvHost   = "LANCONSOLE_HOST"
	EnvLevel  = "LANCONSOLE_LEVEL"
	EnvPort   = "LANCONSOLE_PORT"
	EnvStream = "LANCONSOLE_STREAM"
)

// Settings is the file and environment representation of [Config].
//
// Level and Stream accept a level name, "all", "none", a list of level
// names, or a boolean. Zero values leave the corresponding [Config] field
// untouched.
//
// A TOML example:
//
//	level = ["warn", "error"]
//	stream = true
//	port = 55555
//	use_color = false
type Settings struct {
	Host     string `toml:"host" yaml:"host" validate:"omitempty,ip"`
	Level    any    `toml:"level" yaml:"level"`
	Port     int    `toml:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
	Stream   any    `toml:"stream" yaml:"stream"`
	UseColor *bool  `toml:"use_color" yaml:"use_color"`
}

var validate = validator.New()

// LoadSettings reads settings from a .toml, .yaml or .yml file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseSettingsTOML(data)
	case ".yaml", ".yml":
		return ParseSettingsYAML(data)
	default:
		return nil, newInvalidArgumentError("unsupported settings file extension: %q", filepath.Ext(path))
	}
}

// ParseSettingsTOML parses and validates TOML settings.
func ParseSettingsTOML(data []byte) (*Settings, error) {
	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse settings at line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseSettingsYAML parses and validates YAML settings.
func ParseSettingsYAML(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyEnv overrides the settings with environment variables.
//
// The lookup argument is usually [os.LookupEnv]. Level and stream values
// are a boolean, or a comma separated list of level names.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLevel); ok {
		s.Level = parseEnvLevel(v)
	}
	if v, ok := lookup(EnvStream); ok {
		s.Stream = parseEnvLevel(v)
	}
	if v, ok := lookup(EnvHost); ok {
		s.Host = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return newInvalidArgumentError("%s: invalid port %q", EnvPort, v)
		}
		s.Port = port
	}
	if v, ok := lookup(EnvColor); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return newInvalidArgumentError("%s: invalid boolean %q", EnvColor, v)
		}
		s.UseColor = &enabled
	}
	return s.Validate()
}

func parseEnvLevel(v string) any {
	if enabled, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
		return enabled
	}
	parts := strings.Split(v, ",")
	if len(parts) == 1 {
		return v
	}
	return parts
}

// Validate checks the field ranges and the level values.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if _, err := ParseLevelSpec(s.Level); err != nil {
		return fmt.Errorf("invalid settings: level: %w", err)
	}
	if _, err := ParseLevelSpec(s.Stream); err != nil {
		return fmt.Errorf("invalid settings: stream: %w", err)
	}
	return nil
}

// Apply copies the settings into cfg.
func (s *Settings) Apply(cfg *Config) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Level != nil {
		cfg.Level, _ = ParseLevelSpec(s.Level)
	}
	if s.Stream != nil {
		cfg.Stream, _ = ParseLevelSpec(s.Stream)
	}
	if s.Host != "" {
		addr, err := netip.ParseAddr(s.Host)
		if err != nil {
			return fmt.Errorf("invalid settings: host: %w", err)
		}
		cfg.Host = addr
	}
	if s.Port != 0 {
		cfg.Port = uint16(s.Port)
	}
	if s.UseColor != nil {
		cfg.UseColor = *s.UseColor
	}
	return nil
}
