// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

func newCheckCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report installed tools without changing anything",
		Long: `Run every presence check and print the summary.

check needs neither root nor sudo. It exits 1 when any tool is missing or
python is older than python.min_version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, app, flags, true)
		},
	}
}
