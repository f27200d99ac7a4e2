// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// SetHomeDir points HOME at dir and XDG_CONFIG_HOME at dir/.config so code
// that resolves the user's profile or config directory stays inside the test
// sandbox. It returns a cleanup function restoring both variables.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))
//	    // code that reads ~/.bashrc or ~/.config/devhost ...
//	}
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	restoreHome := MustSetenv(t, "HOME", dir)
	restoreXDG := MustSetenv(t, "XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return func() {
		restoreXDG()
		restoreHome()
	}
}
