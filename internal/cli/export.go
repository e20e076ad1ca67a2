package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all memories as a JSON snapshot",
	Long:  "Export all memories as a JSON snapshot, to stdout or to a file.",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import memories from a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	resp, err := apiClient().Get("/api/export")
	if err != nil {
		exitErr("export", err)
	}

	if len(args) > 0 {
		if err := os.WriteFile(args[0], resp, 0644); err != nil {
			exitErr("write snapshot", err)
		}
		fmt.Fprintf(os.Stderr, "wrote snapshot to %s\n", args[0])
		return nil
	}
	fmt.Println(strings.TrimSpace(string(resp)))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read snapshot", err)
	}

	resp, err := apiClient().Post("/api/import", data)
	if err != nil {
		exitErr("import", err)
	}
	fmt.Println(strings.TrimSpace(string(resp)))
	return nil
}
