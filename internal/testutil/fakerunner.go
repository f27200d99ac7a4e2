// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/pkg/types"
)

type (
	// HandlerFunc produces the outcome of one simulated command.
	HandlerFunc func(cmd execx.Command) (execx.Result, error)

	// FakeRunner is an execx.Runner that answers from registered handlers
	// instead of spawning processes. Handlers are matched against the
	// command's argv joined by spaces; the longest matching prefix wins and
	// later registrations override earlier ones with the same prefix.
	// Commands without a handler behave like a missing program (exit 127).
	FakeRunner struct {
		mu       sync.Mutex
		handlers []fakeHandler
		paths    map[string]bool
		calls    []execx.Command
	}

	fakeHandler struct {
		prefix string
		fn     HandlerFunc
	}
)

// NewFakeRunner returns a runner simulating an empty host.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{paths: make(map[string]bool)}
}

// On registers fn for commands whose argv starts with prefix.
func (f *FakeRunner) On(prefix string, fn HandlerFunc) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{prefix: prefix, fn: fn})
	return f
}

// Provide makes LookPath succeed for names.
func (f *FakeRunner) Provide(names ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.paths[n] = true
	}
	return f
}

// Installs registers installPrefix as a successful command that, once run,
// makes probePrefix answer with probeOut.
func (f *FakeRunner) Installs(installPrefix, probePrefix, probeOut string) *FakeRunner {
	return f.On(installPrefix, func(execx.Command) (execx.Result, error) {
		f.On(probePrefix, Stdout(probeOut))
		return execx.Result{}, nil
	})
}

// Run implements execx.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd execx.Command) (execx.Result, error) {
	key := strings.Join(cmd.Argv(), " ")

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	var match *fakeHandler
	for i := range f.handlers {
		h := &f.handlers[i]
		if !matches(key, h.prefix) {
			continue
		}
		if match == nil || len(h.prefix) >= len(match.prefix) {
			match = h
		}
	}
	f.mu.Unlock()

	if match == nil {
		return Missing()(cmd)
	}
	return match.fn(cmd)
}

// LookPath implements execx.Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paths[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%w: %s", execx.ErrNotFound, name)
}

// Calls returns every command run so far, in order.
func (f *FakeRunner) Calls() []execx.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]execx.Command(nil), f.calls...)
}

// CallCount returns how many commands matched prefix.
func (f *FakeRunner) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if matches(strings.Join(c.Argv(), " "), prefix) {
			n++
		}
	}
	return n
}

// CallLines returns every command run so far rendered as argv strings.
func (f *FakeRunner) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = strings.Join(c.Argv(), " ")
	}
	return lines
}

// MutatingCalls returns the commands that were marked as changing host state.
func (f *FakeRunner) MutatingCalls() []execx.Command {
	var out []execx.Command
	for _, c := range f.Calls() {
		if c.Mutating {
			out = append(out, c)
		}
	}
	return out
}

// Stdout answers with out and exit code 0.
func Stdout(out string) HandlerFunc {
	return func(execx.Command) (execx.Result, error) {
		return execx.Result{Stdout: []byte(out)}, nil
	}
}

// Fail answers with stderr and the given non-zero exit code.
func Fail(code types.ExitCode, stderr string) HandlerFunc {
	return func(cmd execx.Command) (execx.Result, error) {
		res := execx.Result{Stderr: []byte(stderr), ExitCode: code}
		return res, &execx.ExitError{
			Command: cmd.String(),
			Code:    code,
			Stderr:  stderr,
			Err:     fmt.Errorf("exit status %d", code),
		}
	}
}

// Missing answers like a program that is not installed.
func Missing() HandlerFunc {
	return func(cmd execx.Command) (execx.Result, error) {
		res := execx.Result{ExitCode: types.ExitCommandNotFound}
		return res, &execx.ExitError{
			Command: cmd.String(),
			Code:    types.ExitCommandNotFound,
			Err:     fmt.Errorf("%w: %s", execx.ErrNotFound, cmd.Name),
		}
	}
}

func matches(key, prefix string) bool {
	return key == prefix || strings.HasPrefix(key, prefix+" ")
}
