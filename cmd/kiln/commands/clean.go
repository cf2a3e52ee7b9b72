package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, _ := cmd.Flags().GetBool("state")
			return c.app.Clean(cmd.Context(), app.CleanOptions{State: state})
		},
	}
	cmd.Flags().BoolP("state", "s", false, "Also remove the stored build state")
	return cmd
}
