// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/devhost/devhost/internal/execx"

	"github.com/joho/godotenv"
)

// DefaultOSReleasePath is where systemd-era distributions describe themselves.
const DefaultOSReleasePath = "/etc/os-release"

var (
	// ErrNoPackageManager is returned when no supported package manager is found.
	ErrNoPackageManager = errors.New("no supported package manager found")
	// ErrUnsupportedOS is returned on operating systems other than Linux.
	ErrUnsupportedOS = errors.New("unsupported operating system")
)

type (
	// OSRelease is the subset of os-release(5) devhost uses.
	OSRelease struct {
		ID         string
		IDLike     []string
		VersionID  string
		PrettyName string
	}

	// Detector finds the package manager of the current host.
	Detector struct {
		Runner execx.Runner
		// OSReleasePath defaults to DefaultOSReleasePath.
		OSReleasePath string
		// GOOS defaults to runtime.GOOS.
		GOOS string
	}
)

// ReadOSRelease parses an os-release file. The format is shell-style
// KEY="value" assignments, which godotenv reads directly.
func ReadOSRelease(path string) (OSRelease, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		return OSRelease{}, fmt.Errorf("reading %s: %w", path, err)
	}
	rel := OSRelease{
		ID:         strings.ToLower(vals["ID"]),
		VersionID:  vals["VERSION_ID"],
		PrettyName: vals["PRETTY_NAME"],
	}
	for _, like := range strings.Fields(vals["ID_LIKE"]) {
		rel.IDLike = append(rel.IDLike, strings.ToLower(like))
	}
	return rel, nil
}

// String returns a human-readable distribution name.
func (r OSRelease) String() string {
	if r.PrettyName != "" {
		return r.PrettyName
	}
	if r.ID == "" {
		return "unknown"
	}
	return strings.TrimSpace(r.ID + " " + r.VersionID)
}

// kindForDistro maps an os-release ID or ID_LIKE entry to a manager.
func kindForDistro(id string) Kind {
	switch id {
	case "debian", "ubuntu", "linuxmint", "pop", "raspbian", "kali", "elementary":
		return Apt
	case "fedora", "rhel", "centos", "rocky", "almalinux", "ol", "amzn":
		return Dnf
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed", "sles", "suse":
		return Zypper
	case "arch", "manjaro", "endeavouros":
		return Pacman
	case "alpine":
		return Apk
	}
	return ""
}

// Detect returns the host's package manager and distribution description.
// The os-release hint is confirmed against PATH; when it is missing or the
// hinted manager is absent, every supported binary is probed in order.
func (d Detector) Detect() (Kind, OSRelease, error) {
	goos := d.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "linux" {
		return "", OSRelease{}, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
	}

	path := d.OSReleasePath
	if path == "" {
		path = DefaultOSReleasePath
	}
	rel, err := ReadOSRelease(path)
	if err != nil {
		slog.Debug("os-release not readable, probing PATH", "error", err)
	}

	for _, id := range append([]string{rel.ID}, rel.IDLike...) {
		k := kindForDistro(id)
		if k == "" {
			continue
		}
		// Older RHEL derivatives only ship yum.
		if k == Dnf && !d.onPath(Dnf) && d.onPath(Yum) {
			k = Yum
		}
		if d.onPath(k) {
			return k, rel, nil
		}
	}

	for _, k := range Kinds() {
		if d.onPath(k) {
			return k, rel, nil
		}
	}
	return "", rel, fmt.Errorf("%w on %s (looked for apt-get, dnf, yum, zypper, pacman, apk)", ErrNoPackageManager, rel)
}

func (d Detector) onPath(k Kind) bool {
	_, err := d.Runner.LookPath(k.Binary())
	return err == nil
}
