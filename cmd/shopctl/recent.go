package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SkinStore/internal/search"
)

func newRecentCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show or clear recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := recentsStore()
			if err != nil {
				return err
			}

			history := search.LoadHistory(store, search.DefaultOwner)
			if clear {
				history.Clear()
				fmt.Println("recent searches cleared")
				return nil
			}

			entries := history.Entries()
			if len(entries) == 0 {
				fmt.Println("no recent searches")
				return nil
			}
			for i, e := range entries {
				fmt.Printf("%d. %s\n", i+1, e)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "clear the list")
	return cmd
}
