package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskly/internal/httpapi"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore(ctx, "", true)
			if err != nil {
				return err
			}
			srv := httpapi.NewServer(st, a.logger)

			ready := make(chan string, 1)
			go func() {
				select {
				case bound := <-ready:
					a.logger.Printf("listening on http://%s", bound)
				case <-ctx.Done():
				}
			}()
			if err := srv.Run(ctx, addr, ready); err != nil {
				return sysErr("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config http.addr)")
	return cmd
}
