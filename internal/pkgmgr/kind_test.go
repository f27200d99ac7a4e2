// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"slices"
	"testing"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", Auto, false},
		{"auto", Auto, false},
		{"APT", Apt, false},
		{" dnf ", Dnf, false},
		{"pacman", Pacman, false},
		{"brew", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindPackageTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind      Kind
		docker    []string
		plugin    string
		pip       string
		framework string
	}{
		{Apt, []string{"docker.io"}, "docker-compose-plugin", "python3-pip", "python3-flask"},
		{Dnf, []string{"docker", "moby-engine"}, "docker-compose-plugin", "python3-pip", "python3-flask"},
		{Pacman, []string{"docker"}, "docker-compose-plugin", "python-pip", "python-flask"},
		{Apk, []string{"docker"}, "docker-cli-compose", "py3-pip", "py3-flask"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			if got := tt.kind.DockerPackages(); !slices.Equal(got, tt.docker) {
				t.Errorf("DockerPackages() = %v, want %v", got, tt.docker)
			}
			if got := tt.kind.ComposePluginPackage(); got != tt.plugin {
				t.Errorf("ComposePluginPackage() = %q, want %q", got, tt.plugin)
			}
			if got := tt.kind.ComposeClassicPackage(); got != "docker-compose" {
				t.Errorf("ComposeClassicPackage() = %q", got)
			}
			if got := tt.kind.PipPackage(); got != tt.pip {
				t.Errorf("PipPackage() = %q, want %q", got, tt.pip)
			}
			if got := tt.kind.FrameworkPackage("Flask"); got != tt.framework {
				t.Errorf("FrameworkPackage() = %q, want %q", got, tt.framework)
			}
		})
	}
}

func TestAptPythonPackages(t *testing.T) {
	t.Parallel()

	want := []string{"python3", "python3-pip", "python3-venv"}
	if got := Apt.PythonPackages(); !slices.Equal(got, want) {
		t.Errorf("PythonPackages() = %v, want %v", got, want)
	}
}

func TestEveryKindHasCommands(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		if k.refreshArgs() == nil {
			t.Errorf("%s has no refresh command", k)
		}
		if argv := k.installArgs([]string{"x"}); len(argv) < 2 || argv[len(argv)-1] != "x" {
			t.Errorf("%s install argv = %v", k, argv)
		}
	}
}
