package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/capture"
)

func devicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := capture.ListAudioSources()
			if err != nil {
				return err
			}
			for _, device := range devices {
				fmt.Printf("  %d: %s, %s\n", device.Index, device.Name, device.ID)
			}
			return nil
		},
	}
}
