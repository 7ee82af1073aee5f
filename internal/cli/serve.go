package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"campusbot/internal/catalog"
	appLog "campusbot/internal/log"
	"campusbot/internal/web"
)

func newServeCmd(opts *options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat widget and its API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Listen = listen
			}

			sched, err := catalog.NewScheduler(a.catalog, a.cfg.RefreshCron, a.loc)
			if err != nil {
				return err
			}
			sched.Start()
			appLog.Info("catalog refresh scheduled", "cron", a.cfg.RefreshCron, "next", sched.Next().Format(time.RFC3339))
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				sched.Stop(stopCtx)
			}()

			srv := web.NewServer(a.cfg, a.engine, a.catalog)
			err = srv.Serve(ctx)
			appLog.Info("campusbot exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
