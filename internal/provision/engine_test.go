// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/devhost/devhost/internal/execx"
)

func TestPipeToShell(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	tests := []struct {
		name     string
		fetch    string
		wantCode int
		wantOut  string
	}{
		{"script runs", `echo 'echo installed'`, 0, "installed"},
		{"script exit code kept", `echo 'exit 3'`, 3, ""},
		{"failed fetch fails", `echo partial; exit 22`, 22, ""},
	}

	r := execx.NewExecRunner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := r.Run(context.Background(), execx.New("sh", "-c", pipeToShell(tt.fetch)))
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("Run() error = %v", err)
				}
				if res.Output() != tt.wantOut {
					t.Errorf("output = %q, want %q", res.Output(), tt.wantOut)
				}
				return
			}
			var exitErr *execx.ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("Run() error = %v, want *execx.ExitError", err)
			}
			if int(exitErr.Code) != tt.wantCode {
				t.Errorf("exit code = %d, want %d", exitErr.Code, tt.wantCode)
			}
			if res.Output() == "partial" {
				t.Error("the partial download was executed")
			}
		})
	}
}
