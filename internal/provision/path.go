// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/devhost/devhost/internal/issue"
	"github.com/devhost/devhost/internal/report"
	"github.com/devhost/devhost/internal/shellprofile"
)

// ensurePath puts ~/.local/bin on the target user's PATH through their shell
// profile. The profile is never read or written when PATH already has it.
func (p *Provisioner) ensurePath(ctx context.Context) error {
	opts := shellprofile.Options{
		PathEnv:     p.opts.Env.Getenv("PATH"),
		Home:        p.priv.Home,
		Shell:       p.opts.Env.Getenv("SHELL"),
		ProfileFile: p.cfg.Shell.ProfileFile,
		Chown:       p.priv.OnBehalf,
		UID:         p.priv.UID,
		GID:         p.priv.GID,
		DryRun:      p.opts.DryRun,
	}
	dir := filepath.Join("~", shellprofile.LocalBin)

	if shellprofile.InPath(opts.PathEnv, opts.Home) {
		slog.Info(dir + " is already on PATH")
		p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusPresent, Detail: dir + " on PATH"})
		return nil
	}
	if p.opts.CheckOnly {
		p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusMissing, Detail: dir + " not on PATH"})
		return nil
	}

	profile := opts.Resolve()
	if !p.opts.DryRun && !profileExports(profile) {
		if err := p.gate.allow(ctx, "append "+shellprofile.ExportLine+" to "+profile); err != nil {
			p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusFailed, Detail: errorDetail(err)})
			return p.bestEffort("update "+profile, issue.ProfileUpdateFailedId, err)
		}
	}

	outcome, profile, err := shellprofile.Ensure(opts)
	if err != nil {
		p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusFailed, Detail: errorDetail(err)})
		return p.bestEffort("update "+profile, issue.ProfileUpdateFailedId, err)
	}

	shown := p.tildify(profile)
	switch outcome {
	case shellprofile.OutcomeConfigured:
		slog.Info(shown+" already adds "+dir+" to PATH", "hint", "open a new shell to pick it up")
		p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusPresent, Detail: "exported in " + shown})
	case shellprofile.OutcomePlanned:
		p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusSkipped, Source: shown, Detail: "dry run"})
	default:
		slog.Info("added "+dir+" to PATH in "+shown, "hint", "open a new shell to pick it up")
		p.summary.Set(report.Entry{Tool: ToolPath, Status: report.StatusInstalled, Source: shown, Detail: "open a new shell"})
	}
	return nil
}

func profileExports(profile string) bool {
	src, err := os.ReadFile(profile)
	return err == nil && shellprofile.ExportsLocalBin(src, profile)
}

func (p *Provisioner) tildify(path string) string {
	if p.priv.Home == "" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, p.priv.Home+string(filepath.Separator)); ok {
		return filepath.Join("~", rest)
	}
	return path
}
