package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/botsy-ai/botsy/internal/domain"
)

// IngestCmd returns the ingest command for local files.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a document into a bot's knowledge base",
		Long:  "Extract, chunk, embed, and index a local document (txt, md, pdf, html)",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]
	botID, _ := cmd.Flags().GetString("bot")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()
	retriever := rt.buildRetriever()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := retriever.IngestDocument(ctx, botID, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", path, err)
	}

	printIngestResult(cmd, filepath.Base(path), result)
	return nil
}

// IngestURLCmd returns the ingest-url command.
func IngestURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest-url <url>...",
		Short: "Ingest web pages into a bot's knowledge base",
		Long:  "Fetch pages, strip boilerplate, then chunk, embed, and index the readable text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngestURL,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runIngestURL(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	botID, _ := cmd.Flags().GetString("bot")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()
	retriever := rt.buildRetriever()

	results := retriever.IngestURLs(ctx, botID, args)

	failures := 0
	for i := range results {
		printIngestResult(cmd, args[i], &results[i])
		if !results[i].Success {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d urls failed", failures, len(results))
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, label string, result *domain.IngestResult) {
	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonBytes))
		return
	}
	if !result.Success {
		fmt.Printf("%s: failed: %s\n", label, result.Error)
		return
	}
	fmt.Printf("%s: %d chunks added (%d chars)\n", label, result.ChunksAdded, result.ContentLength)
}
