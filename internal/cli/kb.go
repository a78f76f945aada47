package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatsCmd returns the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE:  runStats,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	botID, _ := cmd.Flags().GetString("bot")
	outputFormat, _ := cmd.Flags().GetString("output")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()
	retriever := rt.buildRetriever()

	stats, err := retriever.Stats(ctx, botID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Chunks:     %d\n", stats.TotalChunks)
	fmt.Printf("Documents:  %d\n", stats.TotalDocuments)
	fmt.Printf("Index size: %d bytes\n", stats.IndexSizeBytes)
	return nil
}

// ChunksCmd returns the chunks command.
func ChunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List a knowledge base's chunks",
		RunE:  runChunks,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runChunks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	botID, _ := cmd.Flags().GetString("bot")
	outputFormat, _ := cmd.Flags().GetString("output")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()
	retriever := rt.buildRetriever()

	chunks, err := retriever.Chunks(ctx, botID)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(chunks, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	for _, c := range chunks {
		content := c.Content
		if len(content) > 80 {
			content = content[:80] + "..."
		}
		fmt.Printf("%s [%s #%d] %s\n", c.ID, c.Source, c.ChunkIndex, content)
	}
	fmt.Printf("%d chunks\n", len(chunks))
	return nil
}

// DeleteCmd returns the delete command.
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a bot's entire knowledge base",
		RunE:  runDelete,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.Flags().Bool("yes", false, "Skip confirmation")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	botID, _ := cmd.Flags().GetString("bot")
	yes, _ := cmd.Flags().GetBool("yes")

	if !yes {
		fmt.Printf("Delete all knowledge for bot %s? [y/N]: ", botID)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("aborted")
			return nil
		}
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()
	retriever := rt.buildRetriever()

	if err := retriever.Delete(ctx, botID); err != nil {
		return fmt.Errorf("failed to delete knowledge base: %w", err)
	}

	fmt.Printf("knowledge base for bot %s deleted\n", botID)
	return nil
}
