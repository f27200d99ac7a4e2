// SPDX-License-Identifier: MPL-2.0

// Package report collects what a provisioning run found or changed and
// renders it as text, Markdown, JSON or TOML.
package report

import "slices"

const (
	// StatusPresent means the tool was already installed.
	StatusPresent Status = "present"
	// StatusInstalled means this run installed the tool.
	StatusInstalled Status = "installed"
	// StatusMissing means the tool is absent and was not installed.
	StatusMissing Status = "missing"
	// StatusSkipped means the step did not run (dry run, earlier failure).
	StatusSkipped Status = "skipped"
	// StatusFailed means installing or configuring the tool failed.
	StatusFailed Status = "failed"
)

type (
	// Status is the outcome for one tool.
	Status string

	// Entry is one line of the summary.
	Entry struct {
		Tool    string `json:"tool" toml:"tool"`
		Version string `json:"version,omitempty" toml:"version,omitempty"`
		Status  Status `json:"status" toml:"status"`
		// Source says where an installed tool came from ("apt: docker.io").
		Source string `json:"source,omitempty" toml:"source,omitempty"`
		Detail string `json:"detail,omitempty" toml:"detail,omitempty"`
	}

	// Summary is the ordered result of a run.
	Summary struct {
		Host           string  `json:"host,omitempty" toml:"host,omitempty"`
		PackageManager string  `json:"package_manager,omitempty" toml:"package_manager,omitempty"`
		DryRun         bool    `json:"dry_run" toml:"dry_run"`
		Entries        []Entry `json:"tools" toml:"tools"`
	}
)

// OK reports whether the status counts as a usable tool.
func (s Status) OK() bool {
	return s == StatusPresent || s == StatusInstalled
}

// Set records e, replacing an earlier entry for the same tool in place.
func (s *Summary) Set(e Entry) {
	if i := slices.IndexFunc(s.Entries, func(x Entry) bool { return x.Tool == e.Tool }); i >= 0 {
		s.Entries[i] = e
		return
	}
	s.Entries = append(s.Entries, e)
}

// Get returns the entry for tool.
func (s *Summary) Get(tool string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Tool == tool {
			return e, true
		}
	}
	return Entry{}, false
}

// OK reports whether every recorded tool is present or installed.
func (s *Summary) OK() bool {
	for _, e := range s.Entries {
		if !e.Status.OK() {
			return false
		}
	}
	return true
}

// Installed returns the tools this run installed, in order.
func (s *Summary) Installed() []string {
	var out []string
	for _, e := range s.Entries {
		if e.Status == StatusInstalled {
			out = append(out, e.Tool)
		}
	}
	return out
}
