package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a memory item by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient().Get("/api/memories/" + args[0])
		if err != nil {
			exitErr("get", err)
		}
		fmt.Println(strings.TrimSpace(string(resp)))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a memory item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient().Do("DELETE", "/api/memories/"+args[0], nil)
		if err != nil {
			exitErr("rm", err)
		}
		fmt.Println(strings.TrimSpace(string(resp)))
		return nil
	},
}
