// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devhost/devhost/internal/issue"
	"github.com/devhost/devhost/internal/testutil"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	want := DefaultConfig()
	if cfg.Python.MinVersion != "3.9" || cfg.Python.Framework != "flask" {
		t.Errorf("python = %+v", cfg.Python)
	}
	if *cfg != *want {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
	if cfg.Strict {
		t.Error("strict should default to false")
	}
}

func TestLoad_CUEFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `
strict: true
package_manager: "dnf"
container: engine: "podman"
python: {
	min_version: "3.11"
	framework: "fastapi"
	framework_version: "0.115.0"
}
ui: format: "json"
`)

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}
	if !cfg.Strict || cfg.PackageManager != "dnf" || cfg.Container.Engine != "podman" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Python.MinVersion != "3.11" || cfg.Python.FrameworkRequirement() != "fastapi==0.115.0" {
		t.Errorf("python = %+v", cfg.Python)
	}
	if cfg.UI.Format != FormatJSON {
		t.Errorf("ui.format = %q", cfg.UI.Format)
	}
	// Unset keys keep their defaults.
	if !cfg.Container.PostInstall || cfg.Container.InstallScriptURL != DefaultInstallScriptURL {
		t.Errorf("container defaults lost: %+v", cfg.Container)
	}
	if !cfg.Python.AllowBreakSystemPackages {
		t.Error("allow_break_system_packages default lost")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown package manager", `package_manager: "brew"`, "package_manager"},
		{"wrong type", `strict: "yes"`, "strict"},
		{"unknown field", `colour: "red"`, "colour"},
		{"bad min version", `python: min_version: "three"`, "min_version"},
		{"non-http script url", `container: install_script_url: "ftp://example.com/install.sh"`, "install_script_url"},
		{"syntax error", `strict: {`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), tt.content)

			_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("error should reference ConfigLoadFailedId, got %#v", err)
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_ExplicitFileWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `strict: false`)
	explicit := filepath.Join(t.TempDir(), "ci.cue")
	testutil.MustWriteFile(t, explicit, `strict: true`)

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: explicit, ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Strict || path != explicit {
		t.Errorf("Load() = strict %v from %q", cfg.Strict, path)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `python: min_version: "3.10"`)
	t.Setenv("DEVHOST_STRICT", "true")
	t.Setenv("DEVHOST_PYTHON_MIN_VERSION", "3.12")
	t.Setenv("DEVHOST_CONTAINER_ENGINE", "podman")

	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Strict {
		t.Error("DEVHOST_STRICT not applied")
	}
	if cfg.Python.MinVersion != "3.12" {
		t.Errorf("min_version = %q, env should beat the file", cfg.Python.MinVersion)
	}
	if cfg.Container.Engine != "podman" {
		t.Errorf("engine = %q", cfg.Container.Engine)
	}
}

func TestLoad_EnvValidated(t *testing.T) {
	t.Setenv("DEVHOST_UI_FORMAT", "yaml")

	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "yaml") {
		t.Errorf("error should name the bad format: %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Strict = true
	cfg.Python.FrameworkVersion = "3.0.3"
	cfg.Shell.ProfileFile = "~/.bash_profile"

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), GenerateCUE(cfg))

	got, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	// Not parallel: uses the package-level directory override.
	dir := filepath.Join(t.TempDir(), "devhost")
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, created, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !created || path != filepath.Join(dir, "config.cue") {
		t.Fatalf("CreateDefaultConfig() = %q, %v", path, created)
	}

	testutil.MustWriteFile(t, path, "strict: true\n")
	_, created, err = CreateDefaultConfig()
	if err != nil || created {
		t.Fatalf("second CreateDefaultConfig() = %v, %v", created, err)
	}
	if got := testutil.MustReadFile(t, path); got != "strict: true\n" {
		t.Errorf("existing config overwritten: %q", got)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if got != filepath.Join(xdg, "devhost") {
		t.Errorf("ConfigDir() = %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", xdg)
	got, _ = ConfigDir()
	if got != filepath.Join(xdg, ".config", "devhost") {
		t.Errorf("ConfigDir() without XDG = %q", got)
	}
}
