package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List known topics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		topics, err := env.Service.Topics(ctx)
		if err != nil {
			return err
		}

		if len(topics) == 0 {
			fmt.Fprintln(os.Stderr, "No topics found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, t := range topics {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
