// SPDX-License-Identifier: MPL-2.0

// Package config handles devhost configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/devhost/config.cue (default
// ~/.config/devhost/config.cue), from ./config.cue, or from an explicit path.
// Every key can be overridden with a DEVHOST_ environment variable, dots
// replaced by underscores (DEVHOST_PYTHON_MIN_VERSION=3.10).
//
// Files are validated against the embedded CUE schema (config_schema.cue)
// before being merged over the defaults.
package config
