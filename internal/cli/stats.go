package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient().Get("/api/stats")
		if err != nil {
			exitErr("stats", err)
		}
		fmt.Println(strings.TrimSpace(string(resp)))
		return nil
	},
}
