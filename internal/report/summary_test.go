// SPDX-License-Identifier: MPL-2.0

package report

import (
	"slices"
	"testing"
)

func TestSummary_SetReplacesInPlace(t *testing.T) {
	t.Parallel()

	var s Summary
	s.Set(Entry{Tool: "docker", Status: StatusMissing})
	s.Set(Entry{Tool: "compose", Status: StatusPresent, Version: "2.29.7"})
	s.Set(Entry{Tool: "docker", Status: StatusInstalled, Version: "27.3.1", Source: "apt: docker.io"})

	if len(s.Entries) != 2 {
		t.Fatalf("Entries = %v, want 2 entries", s.Entries)
	}
	if s.Entries[0].Tool != "docker" || s.Entries[0].Status != StatusInstalled {
		t.Errorf("Entries[0] = %+v, want updated docker entry first", s.Entries[0])
	}
	if e, ok := s.Get("compose"); !ok || e.Version != "2.29.7" {
		t.Errorf("Get(compose) = %+v, %v", e, ok)
	}
	if _, ok := s.Get("podman"); ok {
		t.Error("Get(podman) should miss")
	}
	if got := s.Installed(); !slices.Equal(got, []string{"docker"}) {
		t.Errorf("Installed() = %v", got)
	}
}

func TestSummary_OK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		statuses []Status
		want     bool
	}{
		{"empty", nil, true},
		{"all good", []Status{StatusPresent, StatusInstalled}, true},
		{"missing", []Status{StatusPresent, StatusMissing}, false},
		{"skipped", []Status{StatusSkipped}, false},
		{"failed", []Status{StatusInstalled, StatusFailed}, false},
	}
	for _, tt := range tests {
		var s Summary
		for i, st := range tt.statuses {
			s.Set(Entry{Tool: string(rune('a' + i)), Status: st})
		}
		if got := s.OK(); got != tt.want {
			t.Errorf("%s: OK() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
