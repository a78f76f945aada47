package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SearchCmd returns the search command.
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a bot's knowledge base",
		Long:  "Run a similarity search and print the assembled context and sources",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.Flags().IntP("top-k", "k", 5, "Number of results to retrieve")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := args[0]
	botID, _ := cmd.Flags().GetString("bot")
	topK, _ := cmd.Flags().GetInt("top-k")
	outputFormat, _ := cmd.Flags().GetString("output")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()
	retriever := rt.buildRetriever()

	results, err := retriever.Search(ctx, botID, query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	policy := rt.contextPolicy()
	assembled := policy.PrepareContext(results)
	sources := policy.PrepareSources(results)

	if outputFormat == "json" {
		data := map[string]interface{}{
			"results": results,
			"context": assembled,
			"sources": sources,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s (chunk %d)\n", i+1, r.SimilarityScore, r.Source, r.ChunkIndex)
	}
	fmt.Println()
	fmt.Println(assembled)
	return nil
}
