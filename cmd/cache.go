package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/docstash/internal/contentcache"
)

// The content cache lives inside a running serve process, so the cache
// subcommands talk to its HTTP API.
var cacheAddr string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the content cache of a running server",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show content cache occupancy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := http.Get(cacheAddr + "/api/cache/stats")
		if err != nil {
			return eris.Wrap(err, "cache stats request")
		}
		defer resp.Body.Close()

		var stats contentcache.Stats
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return eris.Wrap(err, "decode cache stats")
		}

		fmt.Printf("Entries:      %d\n", stats.EntryCount)
		fmt.Printf("Approx bytes: %d\n", stats.TotalApproxBytes)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached content",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := http.Post(cacheAddr+"/api/cache/clear", "application/json", nil)
		if err != nil {
			return eris.Wrap(err, "cache clear request")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("cache clear: server returned %s", resp.Status)
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheAddr, "addr", "http://localhost:8080", "address of the running server")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
