// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetHomeDir(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	originalXDG, hadXDG := os.LookupEnv("XDG_CONFIG_HOME")

	cleanup := SetHomeDir(t, tmpDir)

	if got := os.Getenv("HOME"); got != tmpDir {
		t.Errorf("HOME = %q, want %q", got, tmpDir)
	}
	if got := os.Getenv("XDG_CONFIG_HOME"); got != filepath.Join(tmpDir, ".config") {
		t.Errorf("XDG_CONFIG_HOME = %q", got)
	}

	cleanup()

	if got := os.Getenv("HOME"); got != originalHome {
		t.Errorf("after cleanup, HOME = %q, want %q", got, originalHome)
	}
	gotXDG, hasXDG := os.LookupEnv("XDG_CONFIG_HOME")
	if hasXDG != hadXDG || gotXDG != originalXDG {
		t.Errorf("after cleanup, XDG_CONFIG_HOME = %q (set=%v), want %q (set=%v)", gotXDG, hasXDG, originalXDG, hadXDG)
	}
}
