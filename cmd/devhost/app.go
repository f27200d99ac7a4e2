// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/devhost/devhost/internal/config"
	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/privilege"
	"github.com/devhost/devhost/internal/provision"
)

// OSReleaseEnv names the variable that points devhost at another os-release
// file.
const OSReleaseEnv = "DEVHOST_OS_RELEASE"

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer; every Cobra handler receives an App and reaches the host only
	// through its Runner.
	App struct {
		Config  ConfigProvider
		Runner  execx.Runner
		Confirm provision.ConfirmFunc
		Env     privilege.Environment
		// OSReleasePath overrides /etc/os-release.
		OSReleasePath string
		stdin         io.Reader
		stdout        io.Writer
		stderr        io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config        ConfigProvider
		Runner        execx.Runner
		Confirm       provision.ConfirmFunc
		Env           privilege.Environment
		OSReleasePath string
		Stdin         io.Reader
		Stdout        io.Writer
		Stderr        io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}
)

// NewApp creates the CLI application with production defaults for every
// dependency left nil.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		// Package manager progress goes to stderr so stdout carries only the summary.
		deps.Runner = execx.NewExecRunner(
			execx.WithInput(deps.Stdin),
			execx.WithOutput(deps.Stderr, deps.Stderr),
		)
	}
	if deps.Confirm == nil {
		deps.Confirm = huhConfirm(deps.Stdin, deps.Stderr)
	}
	if deps.OSReleasePath == "" {
		deps.OSReleasePath = os.Getenv(OSReleaseEnv)
	}

	return &App{
		Config:        deps.Config,
		Runner:        deps.Runner,
		Confirm:       deps.Confirm,
		Env:           deps.Env,
		OSReleasePath: deps.OSReleasePath,
		stdin:         deps.Stdin,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
	}, nil
}
