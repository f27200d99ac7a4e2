// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/devhost/devhost/pkg/types"
)

// TestHelperProcess is not a real test. It is executed as a subprocess by the
// helperCommand factory and behaves according to GO_HELPER_* variables.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	_, _ = fmt.Fprint(os.Stdout, os.Getenv("GO_HELPER_STDOUT"))
	_, _ = fmt.Fprint(os.Stderr, os.Getenv("GO_HELPER_STDERR"))
	if key := os.Getenv("GO_HELPER_ECHO_ENV"); key != "" {
		_, _ = fmt.Fprint(os.Stdout, os.Getenv(key))
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}

func helperEnv(stdout, stderr string, code int) []string {
	return []string{
		"GO_WANT_HELPER_PROCESS=1",
		"GO_HELPER_STDOUT=" + stdout,
		"GO_HELPER_STDERR=" + stderr,
		"GO_HELPER_EXIT_CODE=" + strconv.Itoa(code),
	}
}

func helperCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	//nolint:gosec // TestHelperProcess is a test-only pattern
	return exec.CommandContext(ctx, os.Args[0], cs...)
}

func TestExecRunner_Success(t *testing.T) {
	t.Parallel()

	r := NewExecRunner(
		WithExecCommand(helperCommand),
		WithEnviron(helperEnv("Docker version 27.3.1, build ce12230\n", "", 0)),
	)
	res, err := r.Run(context.Background(), New("docker", "--version"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.Output(); got != "Docker version 27.3.1, build ce12230" {
		t.Errorf("Output() = %q", got)
	}
	if res.ExitCode != types.ExitSuccess {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	t.Parallel()

	r := NewExecRunner(
		WithExecCommand(helperCommand),
		WithEnviron(helperEnv("", "E: Unable to locate package docker-compose-plugin\n", 100)),
	)
	res, err := r.Run(context.Background(), New("apt-get", "install", "-y", "docker-compose-plugin"))
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if exitErr.Code != 100 || res.ExitCode != 100 {
		t.Errorf("exit code = %d / %d, want 100", exitErr.Code, res.ExitCode)
	}
	if exitErr.Stderr != "E: Unable to locate package docker-compose-plugin" {
		t.Errorf("Stderr = %q", exitErr.Stderr)
	}
	if IsNotFound(err) {
		t.Error("a failing install must not be classified as a missing program")
	}
}

func TestExecRunner_CommandEnv(t *testing.T) {
	t.Parallel()

	env := append(helperEnv("", "", 0), "GO_HELPER_ECHO_ENV=DEBIAN_FRONTEND")
	r := NewExecRunner(WithExecCommand(helperCommand), WithEnviron(env))

	res, err := r.Run(context.Background(), New("apt-get", "update").WithEnv("DEBIAN_FRONTEND=noninteractive"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.Output(); got != "noninteractive" {
		t.Errorf("child saw DEBIAN_FRONTEND=%q", got)
	}
}

func TestExecRunner_StreamMirrorsOutput(t *testing.T) {
	t.Parallel()

	var mirror bytes.Buffer
	r := NewExecRunner(
		WithExecCommand(helperCommand),
		WithEnviron(helperEnv("Reading package lists...", "", 0)),
		WithOutput(&mirror, &mirror),
	)
	res, err := r.Run(context.Background(), New("apt-get", "update").Streamed())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if mirror.String() != "Reading package lists..." {
		t.Errorf("mirror = %q", mirror.String())
	}
	if res.Output() != "Reading package lists..." {
		t.Errorf("captured = %q", res.Output())
	}
}

func TestExecRunner_TerminalForwardsInput(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mirror bytes.Buffer
	r := NewExecRunner(WithInput(strings.NewReader("hunter2\n")), WithOutput(&mirror, &mirror))
	r.isTTY = func(io.Writer) bool { return true }

	script := `printf '[sudo] password: ' >/dev/tty; read pw </dev/tty; echo "got $pw"`
	res, err := r.Run(ctx, New("sh", "-c", script).Streamed())
	if err != nil {
		t.Fatalf("Run() error = %v (output %q)", err, mirror.String())
	}
	if !strings.Contains(res.Output(), "got hunter2") {
		t.Errorf("captured = %q, want the typed answer to reach the prompt", res.Output())
	}
	if !strings.Contains(mirror.String(), "[sudo] password: ") {
		t.Errorf("mirror = %q, want the prompt shown", mirror.String())
	}
}

func TestExecRunner_MissingProgram(t *testing.T) {
	t.Parallel()

	r := NewExecRunner()
	res, err := r.Run(context.Background(), New("devhost-no-such-program-4f1c", "--version"))
	if err == nil {
		t.Fatal("expected error for missing program")
	}
	if !IsNotFound(err) || !errors.Is(err, ErrNotFound) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
	if res.ExitCode != types.ExitCommandNotFound {
		t.Errorf("ExitCode = %d, want 127", res.ExitCode)
	}
}

func TestExecRunner_LookPath(t *testing.T) {
	t.Parallel()

	r := NewExecRunner(WithLookPath(func(name string) (string, error) {
		if name == "sudo" {
			return "/usr/bin/sudo", nil
		}
		return "", exec.ErrNotFound
	}))

	if path, err := r.LookPath("sudo"); err != nil || path != "/usr/bin/sudo" {
		t.Errorf("LookPath(sudo) = %q, %v", path, err)
	}
	if _, err := r.LookPath("doas"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookPath(doas) error = %v, want ErrNotFound", err)
	}
}

func TestExecRunner_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewExecRunner(WithExecCommand(helperCommand), WithEnviron(helperEnv("", "", 0)))
	_, err := r.Run(ctx, New("apt-get", "update"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
