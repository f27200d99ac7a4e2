// SPDX-License-Identifier: MPL-2.0

// Package execx runs the external programs devhost delegates to: the OS
// package manager, the container CLI, the Python interpreter and pip.
//
// Every call goes through the Runner interface so provisioning steps can be
// exercised against a simulated host. ExecRunner is the os/exec backed
// implementation; when a command asks to be streamed and stdout is a
// terminal, it is attached to a pseudo-terminal so package-manager progress
// output renders the way it does in an interactive shell. DryRunRunner
// short-circuits mutating commands and only logs what would have run.
package execx
