package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func listCommand() *cobra.Command {
	var showArchived bool
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings grouped by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			entries := a.archive.Active()
			if showArchived {
				entries = a.archive.Archived()
			}
			if query != "" {
				entries = a.archive.FilterByName(entries, query)
			}
			entries = a.archive.StarredFirst(entries)

			for _, group := range a.archive.GroupByDate(entries) {
				fmt.Println(group.Date)
				for _, entry := range group.Entries {
					star := " "
					if entry.Starred {
						star = "*"
					}
					fmt.Printf("  %s %4d  %s\n", star, entry.ID, entry.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showArchived, "archived", false, "show archived recordings")
	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by name")
	return cmd
}
