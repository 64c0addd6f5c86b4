package server

import (
	"os/signal"
	"syscall"

	"github.com/homy/homyadmin/config"
	"github.com/spf13/cobra"
)

// Command returns the server subcommand. cfg is read when the command runs, after
// flag parsing.
func Command(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "serve table views over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Main(ctx, *cfg)
		},
	}
	cfg.BindServerFlags(cmd.Flags())
	return cmd
}
