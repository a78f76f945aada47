package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botsy-ai/botsy/internal/storage"
)

// RestoreCmd returns the restore command.
func RestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a knowledge base from S3 backups",
		Long:  "Download a bot's snapshot artifacts from S3 into the local data directory",
		RunE:  runRestore,
	}

	cmd.Flags().StringP("bot", "b", "", "Bot ID owning the knowledge base (required)")
	cmd.MarkFlagRequired("bot")

	return cmd
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	botID, _ := cmd.Flags().GetString("bot")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if rt.fileStore == nil {
		return fmt.Errorf("restore requires the file-backed store (unset BOTSY_DATABASE_URL)")
	}
	if !rt.cfg.HasS3() {
		return fmt.Errorf("restore requires S3 credentials (BOTSY_S3_ENDPOINT, BOTSY_S3_ACCESS_KEY_ID, BOTSY_S3_SECRET_ACCESS_KEY)")
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        rt.cfg.S3Endpoint,
		Region:          rt.cfg.S3Region,
		AccessKeyID:     rt.cfg.S3AccessKey,
		SecretAccessKey: rt.cfg.S3SecretKey,
		Bucket:          rt.cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	snapshots := storage.NewSnapshotService(s3Client, rt.fileStore)
	if err := snapshots.Restore(ctx, botID); err != nil {
		return fmt.Errorf("failed to restore knowledge base: %w", err)
	}

	fmt.Printf("knowledge base for bot %s restored\n", botID)
	return nil
}
