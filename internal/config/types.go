// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/devhost/devhost/internal/container"
	"github.com/devhost/devhost/internal/pkgmgr"
	"github.com/devhost/devhost/internal/version"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// FormatText prints the summary as a styled table.
	FormatText OutputFormat = "text"
	// FormatMarkdown renders the summary as a Markdown table.
	FormatMarkdown OutputFormat = "markdown"
	// FormatJSON prints the summary as JSON.
	FormatJSON OutputFormat = "json"
	// FormatTOML prints the summary as TOML.
	FormatTOML OutputFormat = "toml"

	// DefaultInstallScriptURL is Docker's convenience install script.
	DefaultInstallScriptURL = "https://get.docker.com"
	// DefaultMinPythonVersion is the lowest acceptable python3.
	DefaultMinPythonVersion = "3.9"
	// DefaultFramework is the web framework installed with pip.
	DefaultFramework = "flask"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	frameworkNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// OutputFormat selects how the summary is printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidConfigError aggregates every field error of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the root configuration structure for devhost.
	Config struct {
		// Strict makes best-effort step failures fatal.
		Strict bool `json:"strict" toml:"strict" mapstructure:"strict"`
		// PackageManager forces a package manager instead of detecting one.
		PackageManager string `json:"package_manager" toml:"package_manager" mapstructure:"package_manager"`
		// Container configures the container engine step.
		Container ContainerConfig `json:"container" toml:"container" mapstructure:"container"`
		// Python configures the interpreter and framework steps.
		Python PythonConfig `json:"python" toml:"python" mapstructure:"python"`
		// Shell configures the PATH step.
		Shell ShellConfig `json:"shell" toml:"shell" mapstructure:"shell"`
		// UI configures output.
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`
	}

	// ContainerConfig configures the container engine and compose steps.
	ContainerConfig struct {
		// Engine is docker or podman.
		Engine string `json:"engine" toml:"engine" mapstructure:"engine"`
		// InstallScriptURL is fetched and piped to sh when every package fails.
		InstallScriptURL string `json:"install_script_url" toml:"install_script_url" mapstructure:"install_script_url"`
		// PostInstall enables docker group and service setup after install.
		PostInstall bool `json:"post_install" toml:"post_install" mapstructure:"post_install"`
	}

	// PythonConfig configures the python, pip and framework steps.
	PythonConfig struct {
		MinVersion       string `json:"min_version" toml:"min_version" mapstructure:"min_version"`
		Framework        string `json:"framework" toml:"framework" mapstructure:"framework"`
		FrameworkVersion string `json:"framework_version" toml:"framework_version" mapstructure:"framework_version"`
		// UpgradeFramework reinstalls the framework even when present.
		UpgradeFramework bool `json:"upgrade_framework" toml:"upgrade_framework" mapstructure:"upgrade_framework"`
		// AllowBreakSystemPackages permits pip's last-resort
		// --break-system-packages install on externally managed interpreters.
		AllowBreakSystemPackages bool `json:"allow_break_system_packages" toml:"allow_break_system_packages" mapstructure:"allow_break_system_packages"`
	}

	// ShellConfig configures the shell profile step.
	ShellConfig struct {
		// ProfileFile overrides the profile chosen from $SHELL.
		ProfileFile string `json:"profile_file" toml:"profile_file" mapstructure:"profile_file"`
	}

	// UIConfig contains user interface settings.
	UIConfig struct {
		Verbose     bool         `json:"verbose" toml:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme  `json:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		Format      OutputFormat `json:"format" toml:"format" mapstructure:"format"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Strict:         false,
		PackageManager: string(pkgmgr.Auto),
		Container: ContainerConfig{
			Engine:           string(container.EngineTypeDocker),
			InstallScriptURL: DefaultInstallScriptURL,
			PostInstall:      true,
		},
		Python: PythonConfig{
			MinVersion:               DefaultMinPythonVersion,
			Framework:                DefaultFramework,
			AllowBreakSystemPackages: true,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Format:      FormatText,
		},
	}
}

// Validate checks every field and returns an *InvalidConfigError listing
// all problems.
func (c Config) Validate() error {
	var errs []error
	if _, err := pkgmgr.ParseKind(c.PackageManager); err != nil {
		errs = append(errs, err)
	}
	if _, err := container.ParseEngineType(c.Container.Engine); err != nil {
		errs = append(errs, err)
	}
	if u, err := url.Parse(c.Container.InstallScriptURL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		errs = append(errs, fmt.Errorf("container.install_script_url %q: must be an http(s) URL", c.Container.InstallScriptURL))
	}
	if _, err := version.Normalize(c.Python.MinVersion); err != nil {
		errs = append(errs, fmt.Errorf("python.min_version: %w", err))
	}
	if !frameworkNameRe.MatchString(c.Python.Framework) {
		errs = append(errs, fmt.Errorf("python.framework %q: not a valid package name", c.Python.Framework))
	}
	if strings.ContainsAny(c.Python.FrameworkVersion, " <>=!~;") {
		errs = append(errs, fmt.Errorf("python.framework_version %q: give a plain version, not a specifier", c.Python.FrameworkVersion))
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.Format.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// FrameworkRequirement returns the pip requirement for the framework
// ("flask" or "flask==3.0.3").
func (c PythonConfig) FrameworkRequirement() string {
	if c.FrameworkVersion == "" {
		return c.Framework
	}
	return c.Framework + "==" + c.FrameworkVersion
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an error if the ColorScheme is not one of the defined schemes.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, markdown, json, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// Validate returns an error if the OutputFormat is not recognized.
func (f OutputFormat) Validate() error {
	switch f {
	case FormatText, FormatMarkdown, FormatJSON, FormatTOML:
		return nil
	default:
		return &InvalidOutputFormatError{Value: f}
	}
}
