package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// demoQueries exercises each tool family plus the pipeline's seams: a
// multi-tool query, location extraction, a plain search, enough topics
// to saturate the concurrency cap, and a weather query asked twice so
// the second run answers from cache.
var demoQueries = []string{
	"What is the current weather in Tokyo and find the latest news about its cherry blossom season.",
	"Tell me the weather for New York City.",
	"Search for latest news about quantum computing.",
	"Find news about AI, Robotics, Space, Biology, and Physics.",
	"What's the weather in Paris?",
	"What's the weather in Paris?",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in demo queries",
	Long: `Demo runs a fixed battery of queries through the pipeline, prints the
structured JSON response for each, then prints cache statistics. Useful
as a smoke test of a fresh installation.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()

	for i, question := range demoQueries {
		fmt.Fprintf(out, "--- Query %d/%d: %s\n", i+1, len(demoQueries), question)

		resp, err := rt.agent.Query(cmd.Context(), question)
		if err != nil {
			fmt.Fprintf(out, "query failed: %v\n\n", err)
			continue
		}

		fmt.Fprintln(out, mustJSON(resp))
		fmt.Fprintln(out)
	}

	stats := rt.store.Stats()
	fmt.Fprintln(out, "Cache statistics:")
	fmt.Fprintf(out, "  hits: %d\n", stats.Hits)
	fmt.Fprintf(out, "  misses: %d\n", stats.Misses)
	fmt.Fprintf(out, "  hit rate: %.1f%%\n", stats.HitRate*100)

	return nil
}
