package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// ObjectStore is the subset of S3 operations the snapshot service needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// ArtifactSource exposes a knowledge base's persisted artifacts for backup
// and accepts them back on restore.
type ArtifactSource interface {
	Artifacts(ctx context.Context, kbID string) (map[string][]byte, error)
	RestoreArtifact(ctx context.Context, kbID, name string, data []byte) error
}

// SnapshotService mirrors knowledge base artifacts to object storage under
// kb/<kbID>/<artifact>. A knowledge base is the unit of backup and restore.
type SnapshotService struct {
	objects ObjectStore
	source  ArtifactSource
}

// NewSnapshotService creates a SnapshotService.
func NewSnapshotService(objects ObjectStore, source ArtifactSource) *SnapshotService {
	return &SnapshotService{objects: objects, source: source}
}

func kbPrefix(kbID string) string {
	return "kb/" + kbID + "/"
}

// Snapshot uploads every current artifact of a knowledge base.
func (s *SnapshotService) Snapshot(ctx context.Context, kbID string) error {
	artifacts, err := s.source.Artifacts(ctx, kbID)
	if err != nil {
		return fmt.Errorf("failed to collect artifacts for %s: %w", kbID, err)
	}
	for name, data := range artifacts {
		if err := s.objects.PutObject(ctx, kbPrefix(kbID)+name, data); err != nil {
			return err
		}
	}
	return nil
}

// Restore downloads a knowledge base's artifacts from object storage and
// writes them back into the local store.
func (s *SnapshotService) Restore(ctx context.Context, kbID string) error {
	keys, err := s.objects.ListKeys(ctx, kbPrefix(kbID))
	if err != nil {
		return err
	}
	for _, key := range keys {
		name := path.Base(key)
		if !strings.HasPrefix(key, kbPrefix(kbID)) || name == "" {
			continue
		}
		data, err := s.objects.GetObject(ctx, key)
		if err != nil {
			return err
		}
		if err := s.source.RestoreArtifact(ctx, kbID, name, data); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes every snapshot object of a knowledge base. Called when the
// knowledge base is deleted.
func (s *SnapshotService) Purge(ctx context.Context, kbID string) error {
	keys, err := s.objects.ListKeys(ctx, kbPrefix(kbID))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.objects.DeleteObject(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
