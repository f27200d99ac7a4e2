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
	"strings"
	"sync"

	"github.com/devhost/devhost/pkg/types"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// ErrNotFound is wrapped by errors for programs that are not installed.
var ErrNotFound = errors.New("command not found")

type (
	// Runner abstracts subprocess execution for provisioning steps.
	Runner interface {
		// Run executes cmd and blocks until it exits. A non-zero exit is
		// reported as an *ExitError; the Result is populated either way.
		Run(ctx context.Context, cmd Command) (Result, error)
		// LookPath resolves a program name the way Run would.
		LookPath(name string) (string, error)
	}

	// Result holds the captured output of a finished command.
	Result struct {
		Stdout   []byte
		Stderr   []byte
		ExitCode types.ExitCode
	}

	// ExitError is returned when a command could not start or exited non-zero.
	ExitError struct {
		Command string
		Code    types.ExitCode
		Stderr  string
		Err     error
	}

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ExecRunnerOption configures an ExecRunner.
	ExecRunnerOption func(*ExecRunner)

	// ExecRunner executes commands on the local host.
	ExecRunner struct {
		stdin    io.Reader
		stdout   io.Writer
		stderr   io.Writer
		env      []string
		command  ExecCommandFunc
		lookPath func(string) (string, error)
		isTTY    func(io.Writer) bool

		pumpOnce sync.Once
		keys     chan []byte
	}
)

// Output returns trimmed stdout, or trimmed stderr when stdout is empty.
// Several tools print their version banner on stderr.
func (r Result) Output() string {
	if out := strings.TrimSpace(string(r.Stdout)); out != "" {
		return out
	}
	return strings.TrimSpace(string(r.Stderr))
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %s", e.Command, e.Code)
	if e.Stderr != "" {
		msg += ": " + lastLine(e.Stderr)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the program itself is missing.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Code.IsCommandNotFound()
}

// WithOutput sets where streamed commands mirror their output.
func WithOutput(stdout, stderr io.Writer) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithInput sets what the user types into commands attached to a
// pseudo-terminal, such as sudo's password prompt (default os.Stdin).
func WithInput(stdin io.Reader) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.stdin = stdin
	}
}

// WithEnviron replaces the base environment (default os.Environ()).
func WithEnviron(env []string) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.env = env
	}
}

// WithExecCommand injects the exec.Cmd factory.
func WithExecCommand(fn ExecCommandFunc) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.command = fn
	}
}

// WithLookPath injects the PATH resolver.
func WithLookPath(fn func(string) (string, error)) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.lookPath = fn
	}
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{
		stdin:    os.Stdin,
		command:  exec.CommandContext,
		lookPath: exec.LookPath,
		isTTY:    isTerminal,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookPath resolves name against PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Run executes cmd on the host.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := r.command(ctx, cmd.Name, cmd.Args...)
	if r.env != nil {
		c.Env = append(append([]string{}, r.env...), cmd.Env...)
	} else if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	if cmd.Stream && r.stdout != nil && r.isTTY(r.stdout) {
		return r.runPTY(ctx, c, cmd)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stream && r.stdout != nil {
		c.Stdout = io.MultiWriter(&stdout, r.stdout)
		if r.stderr != nil {
			c.Stderr = io.MultiWriter(&stderr, r.stderr)
		}
	}

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	return classify(ctx, cmd, res, err)
}

// runPTY attaches the command to a pseudo-terminal and forwards the user's
// input to it. Stdout and stderr arrive merged, so the result carries
// everything in Stdout.
func (r *ExecRunner) runPTY(ctx context.Context, c *exec.Cmd, cmd Command) (Result, error) {
	ptmx, err := pty.Start(c)
	if err != nil {
		return classify(ctx, cmd, Result{}, err)
	}
	defer func() { _ = ptmx.Close() }() // pty master; close error non-critical

	if f, ok := r.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err == nil {
			defer func() { _ = term.Restore(int(f.Fd()), state) }()
		}
		_ = pty.InheritSize(f, ptmx)
	}

	done := make(chan struct{})
	defer close(done)
	if keys := r.input(); keys != nil {
		go forwardInput(keys, ptmx, done)
	}

	var out bytes.Buffer
	// Reading the master returns EIO once the child side closes; that is the
	// normal end of stream on Linux.
	_, _ = io.Copy(io.MultiWriter(&out, r.stdout), ptmx)

	err = c.Wait()
	return classify(ctx, cmd, Result{Stdout: out.Bytes()}, err)
}

// input starts the single reader of stdin shared by every PTY command. It
// owns stdin for the life of the runner and hands chunks to whichever
// command is running.
func (r *ExecRunner) input() <-chan []byte {
	if r.stdin == nil {
		return nil
	}
	r.pumpOnce.Do(func() {
		r.keys = make(chan []byte)
		go func() {
			defer close(r.keys)
			buf := make([]byte, 256)
			for {
				n, err := r.stdin.Read(buf)
				if n > 0 {
					r.keys <- append([]byte(nil), buf[:n]...)
				}
				if err != nil {
					return
				}
			}
		}()
	})
	return r.keys
}

func forwardInput(keys <-chan []byte, ptmx io.Writer, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case b, ok := <-keys:
			if !ok {
				return
			}
			if _, err := ptmx.Write(b); err != nil {
				return
			}
		}
	}
}

func classify(ctx context.Context, cmd Command, res Result, err error) (Result, error) {
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = types.ExitFailure
		return res, fmt.Errorf("%s: %w", cmd.String(), ctxErr)
	}

	exitErr := &ExitError{
		Command: cmd.String(),
		Stderr:  strings.TrimSpace(string(res.Stderr)),
		Err:     err,
	}

	var procErr *exec.ExitError
	var lookErr *exec.Error
	switch {
	case errors.As(err, &procErr):
		exitErr.Code = types.ExitCode(procErr.ExitCode())
	case errors.As(err, &lookErr), errors.Is(err, os.ErrNotExist):
		exitErr.Code = types.ExitCommandNotFound
		exitErr.Err = fmt.Errorf("%w: %s", ErrNotFound, cmd.Name)
	default:
		exitErr.Code = types.ExitFailure
	}
	res.ExitCode = exitErr.Code
	return res, exitErr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
