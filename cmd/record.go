package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/myaudio"
)

func recordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			acquireCtx, cancel := context.WithTimeout(ctx,
				time.Duration(a.settings.Capture.AcquireTimeout)*time.Second)
			defer cancel()
			if err := a.capture.Start(acquireCtx); err != nil {
				return err
			}

			fmt.Println("Recording... press Ctrl-C to stop")
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case <-ticker.C:
					fmt.Printf("\r%s", myaudio.FormatClock(a.capture.Elapsed()))
				}
			}
			fmt.Println()

			id, err := a.capture.Stop(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Saved recording %d\n", id)
			return nil
		},
	}
}
