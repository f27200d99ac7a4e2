// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/devhost/devhost/internal/provision"
)

// huhConfirm asks a yes/no question before the first change to the host.
func huhConfirm(in io.Reader, out io.Writer) provision.ConfirmFunc {
	return func(ctx context.Context, action string) (bool, error) {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("devhost is about to change this host").
					Description(action).
					Affirmative("Continue").
					Negative("Abort").
					Value(&confirmed),
			),
		)
		form.WithInput(in).WithOutput(out).WithTheme(huh.ThemeCharm())
		if err := form.RunWithContext(ctx); err != nil {
			return false, err
		}
		return confirmed, nil
	}
}
