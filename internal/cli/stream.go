package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andhika/lyra/pkg/agent"
)

var streamCmd = &cobra.Command{
	Use:   "stream [question]",
	Short: "Ask a question and stream progress events",
	Long: `Stream runs the same pipeline as ask but executes tools one at a
time and prints each event as it happens: planning, per-tool start and
completion, synthesis, and the final answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	question := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	for chunk := range rt.agent.QueryStream(cmd.Context(), question) {
		switch chunk.Type {
		case agent.ChunkStatus:
			fmt.Fprintf(out, "* %s\n", chunk.Message)
		case agent.ChunkPlanning:
			fmt.Fprintf(out, "* Planning: will use %d tool(s): %s\n",
				len(chunk.Tools), strings.Join(chunk.Tools, ", "))
		case agent.ChunkToolStart:
			fmt.Fprintf(out, "  > executing %s...\n", chunk.ToolName)
		case agent.ChunkToolResult:
			status := "ok"
			if chunk.Error != "" {
				status = "failed: " + chunk.Error
			} else if chunk.Cached {
				status = "ok (cached)"
			}
			fmt.Fprintf(out, "  < %s completed in %dms, %s\n", chunk.ToolName, chunk.LatencyMS, status)
		case agent.ChunkSynthesis:
			fmt.Fprintf(out, "* %s\n", chunk.Message)
		case agent.ChunkAnswer:
			fmt.Fprintf(out, "\n%s\n", chunk.Answer.Answer)
			fmt.Fprintf(out, "\nLatency: %dms  Tokens: %d  Sources: %d\n",
				chunk.Answer.Latency.Total, chunk.Answer.Tokens.Total(), len(chunk.Answer.Sources))
		case agent.ChunkError:
			return fmt.Errorf("query failed: %s", chunk.Error)
		}
	}
	return nil
}

func mustJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
