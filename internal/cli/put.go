package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/server"
)

var putCmd = &cobra.Command{
	Use:   "put [content-json]",
	Short: "Store a memory item",
	Long: `Store a memory item. Content is a JSON object, given as an argument,
as key=value pairs, or piped on stdin:

  strata put '{"fact": "user prefers tabs"}' --category factual --tags style,editor
  strata put fact="user prefers tabs" --category factual
  echo '{"fact": "..."}' | strata put --category factual`,
	RunE: runPut,
}

func init() {
	putCmd.Flags().String("tier", "", "Initial tier: short, medium, long (default: short)")
	putCmd.Flags().String("category", "", "Category: factual, procedural, episodic, semantic, contextual (required)")
	putCmd.Flags().String("priority", "", "Priority: critical, high, medium, low (default: medium)")
	putCmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	putCmd.MarkFlagRequired("category")
}

func runPut(cmd *cobra.Command, args []string) error {
	content, err := parseContent(args)
	if err != nil {
		return err
	}

	tier, _ := cmd.Flags().GetString("tier")
	category, _ := cmd.Flags().GetString("category")
	priority, _ := cmd.Flags().GetString("priority")
	tags, _ := cmd.Flags().GetStringSlice("tags")

	body, _ := json.Marshal(server.StoreRequest{
		Content:  content,
		Tier:     tier,
		Category: category,
		Priority: priority,
		Tags:     tags,
	})

	resp, err := apiClient().Post("/api/memories", body)
	if err != nil {
		exitErr("put", err)
	}
	fmt.Println(strings.TrimSpace(string(resp)))
	return nil
}

// parseContent builds the content object from a JSON argument, key=value
// pairs, or stdin.
func parseContent(args []string) (map[string]any, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		var content map[string]any
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, fmt.Errorf("parse stdin as JSON object: %w", err)
		}
		return content, nil
	}

	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
		var content map[string]any
		if err := json.Unmarshal([]byte(args[0]), &content); err != nil {
			return nil, fmt.Errorf("parse content JSON: %w", err)
		}
		return content, nil
	}

	content := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("bad content argument %q (want key=value or a JSON object)", arg)
		}
		content[k] = v
	}
	return content, nil
}
