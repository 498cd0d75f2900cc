package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banklens/banklens/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statement API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			svc, err := a.service("")
			if err != nil {
				return err
			}

			var pub server.Publisher
			if a.cfg.Sheets.CredentialsPath != "" {
				pub, err = a.publisher(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				a.logger.Warn("no Google credentials configured; publishing disabled")
			}

			srv := server.New(server.Options{
				Analyzer:  svc,
				Publisher: pub,
				SheetName: a.cfg.Sheets.Name,
				Logger:    a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr in config)")

	return cmd
}
