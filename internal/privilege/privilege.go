// SPDX-License-Identifier: MPL-2.0

// Package privilege decides how devhost gains root for mutating commands and
// on whose behalf per-user changes (pip --user installs, the shell profile,
// docker group membership) are made.
package privilege

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/devhost/devhost/internal/execx"
)

// SudoCommand is the escalation helper devhost knows how to drive.
const SudoCommand = "sudo"

// ErrNoEscalation is returned when the process is not root and sudo is not
// installed.
var ErrNoEscalation = errors.New("not running as root and sudo is not available")

type (
	// Environment is the slice of process state privilege detection reads.
	// Fields left nil fall back to the real process.
	Environment struct {
		Geteuid    func() int
		Getenv     func(string) string
		LookupUser func(name string) (*user.User, error)
		Current    func() (*user.User, error)
	}

	// Context is the result of privilege detection for one run.
	Context struct {
		// EUID is the effective user id of this process.
		EUID int
		// Prefix is prepended to mutating commands; empty when already root.
		Prefix []string
		// User is the account that owns per-user changes.
		User string
		// Home is User's home directory.
		Home string
		// UID and GID of User, or -1 when unknown.
		UID int
		GID int
		// OnBehalf is true when running as root for a different, unprivileged user.
		OnBehalf bool

		asUser []string
	}
)

// Detect inspects the process and returns its privilege Context. It fails with
// ErrNoEscalation when the process is unprivileged and sudo cannot be found.
func Detect(r execx.Runner, env Environment) (*Context, error) {
	ctx := Inspect(r, env)
	if !ctx.IsRoot() && len(ctx.Prefix) == 0 {
		_, err := r.LookPath(SudoCommand)
		return nil, fmt.Errorf("%w: %w", ErrNoEscalation, err)
	}
	return ctx, nil
}

// Inspect is Detect without the escalation requirement. Read-only callers
// use it to find the target user and home directory.
func Inspect(r execx.Runner, env Environment) *Context {
	env = env.withDefaults()

	ctx := &Context{EUID: env.Geteuid(), UID: -1, GID: -1}
	_, sudoErr := r.LookPath(SudoCommand)
	if ctx.EUID != 0 && sudoErr == nil {
		ctx.Prefix = []string{SudoCommand}
	}

	ctx.User = strings.TrimSpace(env.Getenv("USER"))
	sudoUser := strings.TrimSpace(env.Getenv("SUDO_USER"))
	if ctx.EUID == 0 && sudoUser != "" && sudoUser != "root" {
		ctx.User = sudoUser
		ctx.OnBehalf = true
	}

	if ctx.User == "" {
		if cur, err := env.Current(); err == nil {
			ctx.User = cur.Username
		}
	}

	ctx.Home = env.Getenv("HOME")
	if u, err := env.LookupUser(ctx.User); err == nil {
		if ctx.OnBehalf || ctx.Home == "" {
			ctx.Home = u.HomeDir
		}
		ctx.UID = atoiOr(u.Uid, -1)
		ctx.GID = atoiOr(u.Gid, -1)
	}

	if ctx.OnBehalf {
		if sudoErr == nil {
			ctx.asUser = []string{SudoCommand, "-u", ctx.User, "-H"}
		} else {
			// Minimal images ship util-linux but not sudo.
			ctx.asUser = []string{"runuser", "-u", ctx.User, "--", "env", "HOME=" + ctx.Home}
		}
	}

	return ctx
}

// IsRoot reports whether mutating commands run without a prefix.
func (c *Context) IsRoot() bool { return c.EUID == 0 }

// TargetIsRoot reports whether per-user changes land in root's account.
func (c *Context) TargetIsRoot() bool {
	return c.User == "root" || (c.IsRoot() && !c.OnBehalf)
}

// Escalate wraps cmd so it runs as root. Environment assignments are moved
// onto the sudo command line because sudo resets the environment.
func (c *Context) Escalate(cmd execx.Command) execx.Command {
	if len(c.Prefix) == 0 {
		return cmd
	}
	args := append([]string{}, c.Prefix[1:]...)
	args = append(args, cmd.Env...)
	args = append(args, cmd.Argv()...)
	return execx.Command{
		Name:     c.Prefix[0],
		Args:     args,
		Mutating: cmd.Mutating,
		Stream:   cmd.Stream,
	}
}

// AsUser wraps cmd so it runs as the target user. It is a no-op unless the
// process is root acting on behalf of someone else.
func (c *Context) AsUser(cmd execx.Command) execx.Command {
	if !c.OnBehalf || len(c.asUser) == 0 {
		return cmd
	}
	args := append([]string{}, c.asUser[1:]...)
	args = append(args, cmd.Env...)
	args = append(args, cmd.Argv()...)
	return execx.Command{
		Name:     c.asUser[0],
		Args:     args,
		Mutating: cmd.Mutating,
		Stream:   cmd.Stream,
	}
}

func (e Environment) withDefaults() Environment {
	if e.Geteuid == nil {
		e.Geteuid = os.Geteuid
	}
	if e.Getenv == nil {
		e.Getenv = os.Getenv
	}
	if e.LookupUser == nil {
		e.LookupUser = user.Lookup
	}
	if e.Current == nil {
		e.Current = user.Current
	}
	return e
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
