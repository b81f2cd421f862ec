package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Classify and stash every file in the inbox directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.ProcessInbox(ctx)
		if err != nil {
			return err
		}

		for _, doc := range result.Processed {
			fmt.Printf("Stashed %s as %s\n", doc.Title, doc.ID)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", f.Item, f.Error)
		}
		fmt.Printf("Inbox complete: %d stashed, %d failed\n", len(result.Processed), len(result.Failures))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)
}
