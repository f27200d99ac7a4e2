// SPDX-License-Identifier: MPL-2.0

// Package pkgmgr detects the host's OS package manager and drives installs
// through it.
package pkgmgr

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// Apt is Debian/Ubuntu apt-get.
	Apt Kind = "apt"
	// Dnf is Fedora/RHEL 8+ dnf.
	Dnf Kind = "dnf"
	// Yum is RHEL/CentOS 7 yum.
	Yum Kind = "yum"
	// Zypper is openSUSE/SLES zypper.
	Zypper Kind = "zypper"
	// Pacman is Arch pacman.
	Pacman Kind = "pacman"
	// Apk is Alpine apk.
	Apk Kind = "apk"
	// Auto asks for detection.
	Auto Kind = "auto"
)

// Kind identifies a package manager.
type Kind string

// Kinds returns every supported package manager in detection order.
func Kinds() []Kind {
	return []Kind{Apt, Dnf, Yum, Zypper, Pacman, Apk}
}

// ParseKind validates s. The empty string and "auto" both yield Auto.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" || k == Auto {
		return Auto, nil
	}
	if !slices.Contains(Kinds(), k) {
		return "", fmt.Errorf("unknown package manager %q (supported: apt, dnf, yum, zypper, pacman, apk)", s)
	}
	return k, nil
}

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Binary returns the executable probed to find this manager on PATH.
func (k Kind) Binary() string {
	if k == Apt {
		return "apt-get"
	}
	return string(k)
}

// refreshArgs returns the argv that refreshes the package index.
func (k Kind) refreshArgs() []string {
	switch k {
	case Apt:
		return []string{"apt-get", "update", "-y"}
	case Dnf:
		return []string{"dnf", "makecache"}
	case Yum:
		return []string{"yum", "makecache"}
	case Zypper:
		return []string{"zypper", "--non-interactive", "refresh"}
	case Pacman:
		return []string{"pacman", "-Sy", "--noconfirm"}
	case Apk:
		return []string{"apk", "update"}
	}
	return nil
}

// installArgs returns the argv that installs packages non-interactively.
func (k Kind) installArgs(pkgs []string) []string {
	var base []string
	switch k {
	case Apt:
		base = []string{"apt-get", "install", "-y"}
	case Dnf:
		base = []string{"dnf", "install", "-y"}
	case Yum:
		base = []string{"yum", "install", "-y"}
	case Zypper:
		base = []string{"zypper", "--non-interactive", "install"}
	case Pacman:
		base = []string{"pacman", "-S", "--noconfirm", "--needed"}
	case Apk:
		base = []string{"apk", "add"}
	default:
		return nil
	}
	return append(base, pkgs...)
}

// env returns extra environment for this manager's commands.
func (k Kind) env() []string {
	if k == Apt {
		return []string{"DEBIAN_FRONTEND=noninteractive"}
	}
	return nil
}

// DockerPackages lists the docker engine packages to try, one at a time.
func (k Kind) DockerPackages() []string {
	switch k {
	case Apt:
		return []string{"docker.io"}
	case Dnf:
		return []string{"docker", "moby-engine"}
	default:
		return []string{"docker"}
	}
}

// PodmanPackages lists the podman packages to try, one at a time.
func (k Kind) PodmanPackages() []string {
	return []string{"podman"}
}

// ComposePluginPackage is the docker compose v2 CLI plugin package.
func (k Kind) ComposePluginPackage() string {
	if k == Apk {
		return "docker-cli-compose"
	}
	return "docker-compose-plugin"
}

// ComposeClassicPackage is the standalone docker-compose package.
func (k Kind) ComposeClassicPackage() string {
	return "docker-compose"
}

// PodmanComposePackage is the podman-compose package.
func (k Kind) PodmanComposePackage() string {
	return "podman-compose"
}

// PythonPackages lists the interpreter packages, installed together.
func (k Kind) PythonPackages() []string {
	switch k {
	case Apt:
		return []string{"python3", "python3-pip", "python3-venv"}
	case Pacman:
		return []string{"python", "python-pip"}
	case Apk:
		return []string{"python3", "py3-pip"}
	default:
		return []string{"python3", "python3-pip"}
	}
}

// PipPackage is the OS package providing pip for python3.
func (k Kind) PipPackage() string {
	switch k {
	case Pacman:
		return "python-pip"
	case Apk:
		return "py3-pip"
	default:
		return "python3-pip"
	}
}

// FrameworkPackage is the distribution's package name for a Python
// distribution such as flask.
func (k Kind) FrameworkPackage(name string) string {
	name = strings.ToLower(name)
	switch k {
	case Pacman:
		return "python-" + name
	case Apk:
		return "py3-" + name
	default:
		return "python3-" + name
	}
}
