// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"slices"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command describes one subprocess invocation.
type Command struct {
	// Name is the program to run, resolved through PATH.
	Name string
	// Args are passed verbatim, never through a shell.
	Args []string
	// Env holds extra KEY=VALUE pairs layered over the runner's environment.
	Env []string
	// Mutating marks commands that change host state (installs, group and
	// service changes). Dry runs skip them.
	Mutating bool
	// Stream mirrors the command's output to the user while it runs.
	Stream bool
}

// New returns a read-only Command.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Mutate returns a copy of c marked as changing host state.
func (c Command) Mutate() Command {
	c.Mutating = true
	return c
}

// Streamed returns a copy of c whose output is mirrored to the user.
func (c Command) Streamed() Command {
	c.Stream = true
	return c
}

// WithEnv returns a copy of c with the extra KEY=VALUE pairs appended.
func (c Command) WithEnv(kv ...string) Command {
	c.Env = append(slices.Clone(c.Env), kv...)
	return c
}

// Argv returns the program name followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command as a copy-pastable bash line, environment
// assignments first.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Env)+len(c.Args)+1)
	for _, kv := range c.Env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			parts = append(parts, quote(kv))
			continue
		}
		parts = append(parts, key+"="+quote(value))
	}
	for _, arg := range c.Argv() {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

// Quote shell-quotes s for bash. Plain words are returned unchanged.
func Quote(s string) string {
	return quote(s)
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}
