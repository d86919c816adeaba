package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-migration-audit/internal/app"
)

func newServeCommand(st *state) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only report API over recorded audit runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				st.cfg.ServerPort = port
			}
			if err := st.cfg.ValidateServe(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := app.New(ctx, st.cfg, st.logger)
			if err != nil {
				return err
			}

			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (env SERVER_PORT)")

	return cmd
}
