// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the devhost CLI.
//
// The root command provisions the host; check, config and version are the
// only subcommands. Commands receive an *App holding the configuration
// provider, the command runner and the output streams.
package cmd
