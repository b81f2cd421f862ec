package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchMetaOnly bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a web page and print its extracted text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		page, err := env.Service.FetchURL(ctx, args[0])
		if err != nil {
			return err
		}

		if fetchMetaOnly {
			fmt.Printf("Title:   %s\n", page.Title)
			fmt.Printf("Type:    %s\n", page.ContentType)
			fmt.Printf("Chars:   %d\n", len(page.Text))
			return nil
		}

		fmt.Println(page.Text)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchMetaOnly, "meta", false, "print metadata instead of content")
	rootCmd.AddCommand(fetchCmd)
}
