// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/devhost/devhost/internal/config"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"
)

// Options tunes rendering.
type Options struct {
	// GlamourStyle is the glamour style for Markdown ("dark", "light",
	// "notty", "auto"). Empty means "notty".
	GlamourStyle string
}

var headers = []string{"Tool", "Version", "Status", "Source", "Detail"}

// Render writes s to w in the requested format.
func Render(w io.Writer, s *Summary, format config.OutputFormat, opts Options) error {
	switch format {
	case config.FormatText, "":
		return renderText(w, s)
	case config.FormatMarkdown:
		return renderMarkdown(w, s, opts)
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case config.FormatTOML:
		return toml.NewEncoder(w).Encode(s)
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidOutputFormat, format)
	}
}

func renderText(w io.Writer, s *Summary) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	muted := r.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	statusStyles := map[Status]lipgloss.Style{
		StatusPresent:   cell.Foreground(lipgloss.Color("#10B981")),
		StatusInstalled: cell.Foreground(lipgloss.Color("#10B981")).Bold(true),
		StatusMissing:   cell.Foreground(lipgloss.Color("#F59E0B")),
		StatusSkipped:   cell.Foreground(lipgloss.Color("#9CA3AF")),
		StatusFailed:    cell.Foreground(lipgloss.Color("#EF4444")).Bold(true),
	}

	rows := make([][]string, len(s.Entries))
	for i, e := range s.Entries {
		rows[i] = []string{e.Tool, orDash(e.Version), string(e.Status), e.Source, e.Detail}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 2 && row >= 0 && row < len(s.Entries) {
				if st, ok := statusStyles[s.Entries[row].Status]; ok {
					return st
				}
			}
			return cell
		})

	var b strings.Builder
	b.WriteString(title.Render("devhost summary"))
	if line := hostLine(s); line != "" {
		b.WriteString(muted.Render("  " + line))
	}
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown returns the summary as a GitHub-flavored Markdown document.
func Markdown(s *Summary) string {
	var b strings.Builder
	b.WriteString("# devhost summary\n\n")
	if line := hostLine(s); line != "" {
		b.WriteString(line + "\n\n")
	}
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, e := range s.Entries {
		cells := []string{e.Tool, orDash(e.Version), string(e.Status), e.Source, e.Detail}
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func renderMarkdown(w io.Writer, s *Summary, opts Options) error {
	style := opts.GlamourStyle
	if style == "" {
		style = "notty"
	}
	out, err := glamour.Render(Markdown(s), style)
	if err != nil {
		return fmt.Errorf("rendering markdown summary: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func hostLine(s *Summary) string {
	var parts []string
	if s.Host != "" {
		parts = append(parts, s.Host)
	}
	if s.PackageManager != "" {
		parts = append(parts, "via "+s.PackageManager)
	}
	if s.DryRun {
		parts = append(parts, "(dry run)")
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
