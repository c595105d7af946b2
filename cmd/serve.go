package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/api"
	"github.com/voicevault/voicevault/internal/logging"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the archive HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.New(a.settings, a.archive, a.capture, a.notifier)
			logging.Info("serving archive API", "address", a.settings.Web.Address)
			return server.Start(ctx)
		},
	}
}
