// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include SetHomeDir, file operations (MustWriteFile,
// MustReadFile, FileExists) and FakeRunner, an execx.Runner that simulates a host whose tools appear
// once the matching install command has run.
package testutil
