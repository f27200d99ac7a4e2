// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad color scheme", func(c *Config) { c.UI.ColorScheme = "neon" }, ErrInvalidColorScheme},
		{"bad format", func(c *Config) { c.UI.Format = "yaml" }, ErrInvalidOutputFormat},
		{"bad engine", func(c *Config) { c.Container.Engine = "lxc" }, nil},
		{"bad package manager", func(c *Config) { c.PackageManager = "brew" }, nil},
		{"bad min version", func(c *Config) { c.Python.MinVersion = "3.x" }, nil},
		{"specifier as version", func(c *Config) { c.Python.FrameworkVersion = ">=3.0" }, nil},
		{"empty framework", func(c *Config) { c.Python.Framework = "" }, nil},
		{"relative script url", func(c *Config) { c.Container.InstallScriptURL = "get.docker.com" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			var invalid *InvalidConfigError
			if !errors.As(err, &invalid) || len(invalid.FieldErrors) != 1 {
				t.Fatalf("Validate() = %#v, want exactly one field error", err)
			}
			if tt.want != nil && !errors.Is(invalid.FieldErrors[0], tt.want) {
				t.Errorf("field error = %v, want %v", invalid.FieldErrors[0], tt.want)
			}
		})
	}
}

func TestFrameworkRequirement(t *testing.T) {
	t.Parallel()

	if got := (PythonConfig{Framework: "flask"}).FrameworkRequirement(); got != "flask" {
		t.Errorf("FrameworkRequirement() = %q", got)
	}
	if got := (PythonConfig{Framework: "django", FrameworkVersion: "5.1"}).FrameworkRequirement(); got != "django==5.1" {
		t.Errorf("FrameworkRequirement() = %q", got)
	}
}
