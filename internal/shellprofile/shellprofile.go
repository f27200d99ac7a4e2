// SPDX-License-Identifier: MPL-2.0

// Package shellprofile makes sure ~/.local/bin, where `pip install --user`
// places console scripts, is on the user's PATH.
package shellprofile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// LocalBin is the user script directory relative to the home directory.
	LocalBin = ".local/bin"
	// ExportLine is appended to the profile. $HOME is left for the shell to
	// expand so the line stays correct if the home directory moves.
	ExportLine = `export PATH="$HOME/.local/bin:$PATH"`
	// Marker precedes ExportLine so users can tell where it came from.
	Marker = "# Added by devhost: user-installed Python scripts"
)

const (
	// OutcomeInPath means PATH already contained the directory.
	OutcomeInPath Outcome = "in-path"
	// OutcomeConfigured means the profile already exports it.
	OutcomeConfigured Outcome = "configured"
	// OutcomeAppended means ExportLine was written to the profile.
	OutcomeAppended Outcome = "appended"
	// OutcomePlanned means a dry run skipped the write.
	OutcomePlanned Outcome = "planned"
)

type (
	// Outcome reports what Ensure did.
	Outcome string

	// Options describes the user whose PATH is being fixed.
	Options struct {
		// PathEnv is the current PATH value.
		PathEnv string
		// Home is the user's home directory.
		Home string
		// Shell is the user's login shell ($SHELL).
		Shell string
		// ProfileFile overrides shell-based selection. Relative paths are
		// resolved against Home; a leading ~/ is expanded.
		ProfileFile string
		// Chown hands a newly created profile to UID:GID. Used when running
		// as root on behalf of another user.
		Chown    bool
		UID, GID int
		// DryRun skips the write.
		DryRun bool
	}
)

// ProfileFor returns the profile path a login shell reads.
func ProfileFor(shell, home string) string {
	switch filepath.Base(strings.TrimSpace(shell)) {
	case "zsh":
		return filepath.Join(home, ".zshrc")
	case "bash":
		return filepath.Join(home, ".bashrc")
	default:
		return filepath.Join(home, ".profile")
	}
}

// Resolve returns the profile Ensure would edit.
func (o Options) Resolve() string {
	p := strings.TrimSpace(o.ProfileFile)
	switch {
	case p == "":
		return ProfileFor(o.Shell, o.Home)
	case p == "~":
		return o.Home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(o.Home, p[2:])
	case !filepath.IsAbs(p):
		return filepath.Join(o.Home, p)
	}
	return p
}

// InPath reports whether pathEnv contains home/.local/bin, accepting the
// ~, $HOME and ${HOME} spellings and trailing slashes.
func InPath(pathEnv, home string) bool {
	want := map[string]bool{
		"~/" + LocalBin:       true,
		"$HOME/" + LocalBin:   true,
		"${HOME}/" + LocalBin: true,
	}
	if home != "" {
		want[filepath.Join(home, LocalBin)] = true
	}
	for _, entry := range filepath.SplitList(pathEnv) {
		entry = strings.TrimSpace(entry)
		if len(entry) > 1 {
			entry = strings.TrimRight(entry, "/")
		}
		if want[entry] || (filepath.IsAbs(entry) && want[filepath.Clean(entry)]) {
			return true
		}
	}
	return false
}

// ExportsLocalBin reports whether the shell script src assigns or exports a
// PATH value mentioning .local/bin. Scripts the bash parser rejects (zsh
// syntax, for instance) are scanned line by line instead.
func ExportsLocalBin(src []byte, name string) bool {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(bytes.NewReader(src), name)
	if err != nil {
		slog.Debug("profile not parseable as bash, scanning lines", "file", name, "error", err)
		return scanLines(src)
	}

	found := false
	printer := syntax.NewPrinter()
	syntax.Walk(file, func(node syntax.Node) bool {
		if found {
			return false
		}
		assign, ok := node.(*syntax.Assign)
		if !ok || assign.Name == nil || assign.Name.Value != "PATH" {
			return true
		}
		var buf bytes.Buffer
		switch {
		case assign.Value != nil:
			_ = printer.Print(&buf, assign.Value)
		case assign.Array != nil:
			_ = printer.Print(&buf, assign.Array)
		}
		if strings.Contains(buf.String(), LocalBin) {
			found = true
		}
		return true
	})
	return found
}

func scanLines(src []byte) bool {
	for line := range strings.SplitSeq(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "PATH") && strings.Contains(line, LocalBin) {
			return true
		}
	}
	return false
}

// Ensure puts ~/.local/bin on the user's PATH. A PATH that already contains
// it leaves the profile untouched, as does a profile that already exports it.
// Otherwise ExportLine is appended under Marker.
func Ensure(opts Options) (Outcome, string, error) {
	profile := opts.Resolve()
	if InPath(opts.PathEnv, opts.Home) {
		return OutcomeInPath, profile, nil
	}

	existing, err := os.ReadFile(profile)
	created := errors.Is(err, fs.ErrNotExist)
	if err != nil && !created {
		return "", profile, fmt.Errorf("reading %s: %w", profile, err)
	}
	if ExportsLocalBin(existing, profile) {
		return OutcomeConfigured, profile, nil
	}

	if opts.DryRun {
		slog.Info("dry run, not writing", "file", profile, "line", ExportLine)
		return OutcomePlanned, profile, nil
	}

	if err := appendExport(profile, existing); err != nil {
		return "", profile, err
	}
	if created && opts.Chown && opts.UID >= 0 {
		if err := os.Chown(profile, opts.UID, opts.GID); err != nil {
			return OutcomeAppended, profile, fmt.Errorf("chown %s: %w", profile, err)
		}
	}
	return OutcomeAppended, profile, nil
}

func appendExport(profile string, existing []byte) (err error) {
	if err := os.MkdirAll(filepath.Dir(profile), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(profile), err)
	}
	f, err := os.OpenFile(profile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", profile, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", profile, closeErr)
		}
	}()

	var block strings.Builder
	if len(existing) > 0 {
		if existing[len(existing)-1] != '\n' {
			block.WriteString("\n")
		}
		block.WriteString("\n")
	}
	block.WriteString(Marker + "\n")
	block.WriteString(ExportLine + "\n")

	if _, err := io.WriteString(f, block.String()); err != nil {
		return fmt.Errorf("writing %s: %w", profile, err)
	}
	return nil
}
