package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, serve the output directory and rebuild on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Watch(cmd.Context(), app.WatchOptions{
				Addr:     c.settings.Addr(),
				Debounce: c.settings.Debounce,
			})
		},
	}
	cmd.Flags().String("host", "127.0.0.1", "Host the development server listens on")
	cmd.Flags().IntP("port", "p", 3000, "Port the development server listens on")
	cmd.Flags().Duration("debounce", 0, "Quiet window after the last change before rebuilding (default 200ms)")
	return cmd
}
