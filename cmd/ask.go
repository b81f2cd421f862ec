package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/docstash/internal/model"
)

var (
	askURL   string
	askDocID string
	askSplit bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about a stashed document or a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if (askURL == "") == (askDocID == "") {
			return eris.New("exactly one of --url or --doc is required")
		}
		if cmd.Flags().Changed("split") {
			cfg.Ask.SplitAndSynthesize = askSplit
		}

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var result *model.AskResult
		if askURL != "" {
			result, err = env.Service.AskURL(ctx, askURL, args[0])
		} else {
			result, err = env.Service.AskDocument(ctx, askDocID, args[0])
		}
		if err != nil {
			return err
		}

		fmt.Println(result.Answer)
		if result.ChunksProcessed > 1 {
			fmt.Printf("\n(synthesized from %d chunks)\n", result.ChunksProcessed)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askURL, "url", "", "ask about a URL")
	askCmd.Flags().StringVar(&askDocID, "doc", "", "ask about a stashed document by ID")
	askCmd.Flags().BoolVar(&askSplit, "split", false, "split oversized documents into chunks and synthesize")
	rootCmd.AddCommand(askCmd)
}
