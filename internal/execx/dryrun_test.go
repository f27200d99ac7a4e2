// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"context"
	"testing"
)

type countingRunner struct {
	calls []Command
}

func (c *countingRunner) Run(_ context.Context, cmd Command) (Result, error) {
	c.calls = append(c.calls, cmd)
	return Result{Stdout: []byte("ok")}, nil
}

func (c *countingRunner) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

func TestDryRunRunner(t *testing.T) {
	t.Parallel()

	next := &countingRunner{}
	d := NewDryRunRunner(next)
	ctx := context.Background()

	if _, err := d.Run(ctx, New("docker", "--version")); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if _, err := d.Run(ctx, New("apt-get", "install", "-y", "docker.io").Mutate()); err != nil {
		t.Fatalf("mutating command error = %v", err)
	}

	if len(next.calls) != 1 || next.calls[0].Name != "docker" {
		t.Errorf("wrapped runner calls = %v, want only the probe", next.calls)
	}
	planned := d.Planned()
	if len(planned) != 1 || planned[0].String() != "apt-get install -y docker.io" {
		t.Errorf("Planned() = %v", planned)
	}
	if path, _ := d.LookPath("sudo"); path != "/usr/bin/sudo" {
		t.Errorf("LookPath must delegate, got %q", path)
	}
}
