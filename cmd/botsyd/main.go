package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botsy-ai/botsy/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "botsyd",
		Short: "Botsy knowledge daemon and CLI",
		Long: `Botsy daemon for serving the knowledge API and managing
per-bot knowledge bases from the command line.

Environment variables use the BOTSY_ prefix (BOTSY_PORT,
BOTSY_DATA_DIR, BOTSY_DATABASE_URL, BOTSY_OPENAI_API_KEY, ...).`,
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.IngestURLCmd())
	rootCmd.AddCommand(cli.SearchCmd())
	rootCmd.AddCommand(cli.ChunksCmd())
	rootCmd.AddCommand(cli.StatsCmd())
	rootCmd.AddCommand(cli.DeleteCmd())
	rootCmd.AddCommand(cli.RestoreCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
