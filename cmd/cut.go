package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func cutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cut <id> <start> <end>",
		Short: "Remove a time segment from a recording into a new entry",
		Long: `Remove the half-open interval [start, end) from a recording and save
the result as a new entry. Times are given as MM:SS or HH:MM:SS. The
source recording is left untouched.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			newID, err := a.archive.Cut(cmd.Context(), uint(id), args[1], args[2])
			if err != nil {
				return err
			}
			if entry, ok := a.archive.Get(newID); ok {
				fmt.Printf("Saved %q as recording %d\n", entry.Name, newID)
			}
			return nil
		},
	}
}
