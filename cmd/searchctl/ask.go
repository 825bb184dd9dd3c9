package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask a grounded question and print the answer with its sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errBlank
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	service, cfg, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(cfg)
	defer cancel()

	result, err := service.Answer(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	placeholders := orchestrator.DerivePlaceholders(cfg.Placeholders.BaseURL, query, orchestrator.PlaceholderCount)

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"query":        query,
			"result":       result,
			"placeholders": placeholders,
		})
	}

	fmt.Fprintf(out, "%s\n", result.Answer)
	if len(result.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, s := range result.Sources {
			fmt.Fprintf(out, "  - %s <%s>\n", s.Title, s.URI)
		}
	}
	fmt.Fprintln(out, "\nRelated:")
	for _, t := range result.RelatedTopics {
		fmt.Fprintf(out, "  - %s\n", t)
	}
	fmt.Fprintln(out, "\nImages:")
	for _, p := range placeholders {
		fmt.Fprintf(out, "  - %s\n", p.Src)
	}
	return nil
}
