// Package cli implements the strata CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/client"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Tiered, relevance-ranked memory for AI agents",
	Long:  "Strata stores agent memories in three retention tiers, promotes and evicts them over time, and answers relevance-ranked queries. Single Go binary, SQLite-backed.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Server URL (default: $STRATA_URL or http://127.0.0.1:38111)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func apiClient() *client.Client {
	return client.New(serverURL)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
