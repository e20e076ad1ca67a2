package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/server"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a relevance-ranked query",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringSlice("tags", nil, "Comma-separated query tags")
	queryCmd.Flags().StringSlice("tiers", nil, "Restrict to tiers: short, medium, long")
	queryCmd.Flags().StringSlice("categories", nil, "Restrict to categories")
	queryCmd.Flags().Float64("min-relevance", 0, "Minimum relevance score (default 0.1)")
	queryCmd.Flags().IntP("limit", "l", 0, "Maximum results (default 10)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	tags, _ := cmd.Flags().GetStringSlice("tags")
	tiers, _ := cmd.Flags().GetStringSlice("tiers")
	categories, _ := cmd.Flags().GetStringSlice("categories")
	minRel, _ := cmd.Flags().GetFloat64("min-relevance")
	limit, _ := cmd.Flags().GetInt("limit")

	body, _ := json.Marshal(server.QueryRequest{
		Text:         strings.Join(args, " "),
		Tags:         tags,
		Tiers:        tiers,
		Categories:   categories,
		MinRelevance: minRel,
		Limit:        limit,
	})

	resp, err := apiClient().Post("/api/query", body)
	if err != nil {
		exitErr("query", err)
	}
	fmt.Println(strings.TrimSpace(string(resp)))
	return nil
}
