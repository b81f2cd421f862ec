package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stashed documents by content and filename",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Service.Search(ctx, args[0])
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No matches found.")
			return nil
		}

		for _, r := range results {
			fmt.Printf("%s  [%s]  %s\n", r.Filename, r.MatchType, r.DocumentID)
			for _, m := range r.Matches {
				fmt.Printf("  %d: %s\n", m.Line, m.Text)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
