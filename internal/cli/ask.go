package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and print the synthesized answer",
	Long: `Ask runs the full pipeline once: the question is planned into tool
calls, the tools execute in parallel under the policy, and the folded
answer is printed with its sources and latency breakdown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	question := strings.Join(args, " ")
	resp, err := rt.agent.Query(cmd.Context(), question)
	if err != nil {
		return err
	}

	if askJSON {
		fmt.Fprintln(cmd.OutOrStdout(), mustJSON(resp))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, src := range resp.Sources {
			fmt.Fprintf(out, "  - %s (%s)\n", src.Name, src.URL)
		}
	}
	fmt.Fprintf(out, "\nLatency: %dms", resp.Latency.Total)
	fmt.Fprintf(out, "  Tokens: %d", resp.Tokens.Total())
	if resp.Cost != nil {
		fmt.Fprintf(out, "  Cost: $%.4f", resp.Cost.TotalCostUSD)
	}
	fmt.Fprintln(out)
	return nil
}
