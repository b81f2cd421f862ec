package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Verify that every catalog entry still has its stash file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Reindex(ctx)
		if err != nil {
			return err
		}

		for _, name := range result.Missing {
			fmt.Fprintf(os.Stderr, "MISSING %s\n", name)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", f.Item, f.Error)
		}
		fmt.Printf("Reindex complete: %d checked, %d missing\n", result.Checked, len(result.Missing))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
