// SPDX-License-Identifier: MPL-2.0

package shellprofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devhost/devhost/internal/testutil"
)

func TestProfileFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell string
		want  string
	}{
		{"/bin/bash", "/home/alice/.bashrc"},
		{"/usr/bin/zsh", "/home/alice/.zshrc"},
		{"/bin/sh", "/home/alice/.profile"},
		{"/usr/bin/fish", "/home/alice/.profile"},
		{"", "/home/alice/.profile"},
	}
	for _, tt := range tests {
		if got := ProfileFor(tt.shell, "/home/alice"); got != tt.want {
			t.Errorf("ProfileFor(%q) = %q, want %q", tt.shell, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		override string
		want     string
	}{
		{"", "/home/alice/.bashrc"},
		{"~/.bash_profile", "/home/alice/.bash_profile"},
		{".zprofile", "/home/alice/.zprofile"},
		{"/etc/profile.d/devhost.sh", "/etc/profile.d/devhost.sh"},
	}
	for _, tt := range tests {
		opts := Options{Home: "/home/alice", Shell: "/bin/bash", ProfileFile: tt.override}
		if got := opts.Resolve(); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.override, got, tt.want)
		}
	}
}

func TestInPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"absolute", "/usr/bin:/home/alice/.local/bin:/bin", true},
		{"trailing slash", "/home/alice/.local/bin/:/usr/bin", true},
		{"tilde", "~/.local/bin:/usr/bin", true},
		{"dollar home", "$HOME/.local/bin", true},
		{"braced home", "${HOME}/.local/bin", true},
		{"other user", "/home/bob/.local/bin:/usr/bin", false},
		{"prefix only", "/home/alice/.local/bin2", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := InPath(tt.path, "/home/alice"); got != tt.want {
				t.Errorf("InPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExportsLocalBin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"export", "export PATH=\"$HOME/.local/bin:$PATH\"\n", true},
		{"plain assignment", "PATH=$PATH:~/.local/bin\n", true},
		{"inside if", "if [ -d \"$HOME/.local/bin\" ] ; then\n    PATH=\"$HOME/.local/bin:$PATH\"\nfi\n", true},
		{"comment only", "# export PATH=\"$HOME/.local/bin:$PATH\"\n", false},
		{"other PATH change", "export PATH=\"$HOME/go/bin:$PATH\"\n", false},
		{"mentioned outside PATH", "alias lb='ls ~/.local/bin'\n", false},
		{"zsh profile", "path=(~/.local/bin $path)\nexport PATH=~/.local/bin:$PATH\nsetopt extended_glob\n[[ $x == (#i)foo ]] && print ok\n", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExportsLocalBin([]byte(tt.src), "profile"); got != tt.want {
				t.Errorf("ExportsLocalBin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsure_InPathLeavesProfileUntouched(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	profile := filepath.Join(home, ".bashrc")
	testutil.MustWriteFile(t, profile, "alias ll='ls -l'\n")
	before, _ := os.Stat(profile)

	outcome, _, err := Ensure(Options{
		PathEnv: "/usr/bin:" + filepath.Join(home, ".local/bin"),
		Home:    home,
		Shell:   "/bin/bash",
	})
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if outcome != OutcomeInPath {
		t.Errorf("Ensure() = %q, want %q", outcome, OutcomeInPath)
	}
	if got := testutil.MustReadFile(t, profile); got != "alias ll='ls -l'\n" {
		t.Errorf("profile changed: %q", got)
	}
	after, _ := os.Stat(profile)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("profile modification time changed")
	}
}

func TestEnsure_InPathNoProfileCreated(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	if _, _, err := Ensure(Options{PathEnv: "~/.local/bin", Home: home, Shell: "/bin/zsh"}); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if testutil.FileExists(filepath.Join(home, ".zshrc")) {
		t.Error("Ensure() created a profile although PATH was fine")
	}
}

func TestEnsure_AppendsOnce(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	profile := filepath.Join(home, ".bashrc")
	testutil.MustWriteFile(t, profile, "alias ll='ls -l'")
	opts := Options{PathEnv: "/usr/bin:/bin", Home: home, Shell: "/bin/bash"}

	outcome, path, err := Ensure(opts)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if outcome != OutcomeAppended || path != profile {
		t.Fatalf("Ensure() = %q, %q", outcome, path)
	}
	want := "alias ll='ls -l'\n\n" + Marker + "\n" + ExportLine + "\n"
	if got := testutil.MustReadFile(t, profile); got != want {
		t.Errorf("profile = %q, want %q", got, want)
	}

	outcome, _, err = Ensure(opts)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if outcome != OutcomeConfigured {
		t.Errorf("second Ensure() = %q, want %q", outcome, OutcomeConfigured)
	}
	if got := strings.Count(testutil.MustReadFile(t, profile), ExportLine); got != 1 {
		t.Errorf("export line present %d times, want 1", got)
	}
}

func TestEnsure_CreatesProfile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	outcome, profile, err := Ensure(Options{
		PathEnv: "/usr/bin",
		Home:    home,
		Shell:   "/bin/sh",
		Chown:   true,
		UID:     os.Getuid(),
		GID:     os.Getgid(),
	})
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if outcome != OutcomeAppended || profile != filepath.Join(home, ".profile") {
		t.Fatalf("Ensure() = %q, %q", outcome, profile)
	}
	if got := testutil.MustReadFile(t, profile); got != Marker+"\n"+ExportLine+"\n" {
		t.Errorf("profile = %q", got)
	}
}

func TestEnsure_DryRun(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	outcome, profile, err := Ensure(Options{PathEnv: "/usr/bin", Home: home, Shell: "/bin/bash", DryRun: true})
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if outcome != OutcomePlanned {
		t.Errorf("Ensure() = %q, want %q", outcome, OutcomePlanned)
	}
	if testutil.FileExists(profile) {
		t.Error("dry run wrote the profile")
	}
}
