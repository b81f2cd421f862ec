package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/docstash/internal/model"
	"github.com/sells-group/docstash/internal/store"
)

var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Manage the document stash",
	Long:  "Commands for listing, adding, and removing stashed documents.",
}

// -- stash list --

var (
	listType  string
	listTopic string
	listLimit int
)

var stashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stashed documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		docs, err := env.Service.List(ctx, store.DocumentFilter{
			ContentType: model.ContentType(listType),
			Topic:       listTopic,
			Limit:       listLimit,
		})
		if err != nil {
			return err
		}

		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No documents found.")
			return nil
		}

		formatDocList(os.Stdout, docs)
		return nil
	},
}

func formatDocList(out io.Writer, docs []model.Document) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tCHARS\tADDED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			d.ID, d.Title, d.ContentType, d.SizeChars, d.AddedAt.Format("2006-01-02"))
	}
	w.Flush()
}

// -- stash add --

var stashAddCmd = &cobra.Command{
	Use:   "add <path-or-url>",
	Short: "Add a file or URL to the stash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var doc *model.Document
		if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
			doc, err = env.Service.AddURL(ctx, args[0])
		} else {
			doc, err = env.Service.AddFile(ctx, args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Stashed %s (%s, %d chars) as %s\n", doc.Title, doc.ContentType, doc.SizeChars, doc.ID)
		return nil
	},
}

// -- stash rm --

var stashRmCmd = &cobra.Command{
	Use:   "rm <document-id>",
	Short: "Remove a document from the stash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

func init() {
	stashListCmd.Flags().StringVar(&listType, "type", "", "filter by content type (web_page, pdf, text)")
	stashListCmd.Flags().StringVar(&listTopic, "topic", "", "filter by topic")
	stashListCmd.Flags().IntVar(&listLimit, "limit", 50, "max documents to list")

	stashCmd.AddCommand(stashListCmd)
	stashCmd.AddCommand(stashAddCmd)
	stashCmd.AddCommand(stashRmCmd)
	rootCmd.AddCommand(stashCmd)
}
