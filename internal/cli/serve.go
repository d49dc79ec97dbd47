package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ByteReview/internal/config"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, logger, release, err := opts.open(ctx, func(cfg *config.Config) error {
				if addr != "" {
					cfg.HTTP.Addr = addr
				}
				return cfg.Validate()
			})
			if err != nil {
				return err
			}
			defer release()

			logger.Info("starting bytereview")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info("bytereview stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
