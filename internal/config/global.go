// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride lets tests pin the config directory without touching
// XDG_CONFIG_HOME or HOME.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
