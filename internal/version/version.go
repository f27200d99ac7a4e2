// SPDX-License-Identifier: MPL-2.0

// Package version extracts version numbers from tool banners and compares
// them. Comparison is delegated to golang.org/x/mod/semver after the input is
// normalized to a "vMAJOR[.MINOR[.PATCH]]" form.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	// ErrNoVersion is returned when a banner contains no version number.
	ErrNoVersion = errors.New("no version number found")
	// ErrInvalidVersion indicates the provided version string is not a
	// dotted numeric version.
	ErrInvalidVersion = errors.New("invalid version")

	// versionPattern matches the first dotted numeric run, e.g. the "3.11.4"
	// in "Python 3.11.4" or the "27.3.1" in "Docker version 27.3.1, build x".
	versionPattern = regexp.MustCompile(`\d+(?:\.\d+){0,2}`)
)

// Extract returns the first version number found in s.
func Extract(s string) (string, error) {
	v := versionPattern.FindString(s)
	if v == "" {
		return "", fmt.Errorf("%w in %q", ErrNoVersion, strings.TrimSpace(s))
	}
	return v, nil
}

// Normalize converts "3.9", "v3.9.1" or "3" into the canonical semver form
// used for comparison ("v3.9.0", "v3.9.1", "v3.0.0").
func Normalize(v string) (string, error) {
	norm := strings.TrimSpace(v)
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) || semver.Prerelease(norm) != "" || semver.Build(norm) != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return semver.Canonical(norm), nil
}

// Compare returns -1, 0 or +1 as a is older than, equal to, or newer than b.
func Compare(a, b string) (int, error) {
	na, err := Normalize(a)
	if err != nil {
		return 0, err
	}
	nb, err := Normalize(b)
	if err != nil {
		return 0, err
	}
	return semver.Compare(na, nb), nil
}

// AtLeast reports whether v is equal to or newer than minimum.
func AtLeast(v, minimum string) (bool, error) {
	c, err := Compare(v, minimum)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}
