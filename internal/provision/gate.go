// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/devhost/devhost/internal/execx"
)

// gate asks for confirmation once, before the first mutating command, and
// refuses every mutating command after a "no".
type gate struct {
	next    execx.Runner
	confirm ConfirmFunc
	// cancel stops the run when the user declines.
	cancel context.CancelCauseFunc

	mu       sync.Mutex
	asked    bool
	approved bool
}

// Run implements execx.Runner.
func (g *gate) Run(ctx context.Context, cmd execx.Command) (execx.Result, error) {
	if cmd.Mutating {
		if err := g.allow(ctx, cmd.String()); err != nil {
			return execx.Result{}, err
		}
	}
	return g.next.Run(ctx, cmd)
}

// LookPath implements execx.Runner.
func (g *gate) LookPath(name string) (string, error) {
	return g.next.LookPath(name)
}

// allow returns nil when action may proceed.
func (g *gate) allow(ctx context.Context, action string) error {
	if g.confirm == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.asked {
		g.asked = true
		ok, err := g.confirm(ctx, action)
		if err != nil {
			return fmt.Errorf("asking for confirmation: %w", err)
		}
		g.approved = ok
	}
	if !g.approved {
		err := fmt.Errorf("%w: %s", ErrDeclined, action)
		if g.cancel != nil {
			g.cancel(err)
		}
		return err
	}
	return nil
}
