package jobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

const (
	// MaxRetries is the maximum number of flush attempts before a knowledge
	// base is dropped from the dirty set.
	MaxRetries = 3
)

// Snapshotter mirrors a knowledge base's artifacts to backup storage, or
// removes them when the knowledge base no longer exists.
type Snapshotter interface {
	Snapshot(ctx context.Context, kbID string) error
	Purge(ctx context.Context, kbID string) error
}

// ArtifactLister reports the artifacts a knowledge base currently has on disk.
type ArtifactLister interface {
	Artifacts(ctx context.Context, kbID string) (map[string][]byte, error)
}

// SnapshotProcessor tracks knowledge bases whose artifacts changed and
// flushes them to backup storage on each poll. It implements the worker's
// JobProcessor and the retriever's DirtyTracker.
type SnapshotProcessor struct {
	snapshots Snapshotter
	lister    ArtifactLister

	mu      sync.Mutex
	dirty   map[string]struct{}
	retries map[string]int
}

// NewSnapshotProcessor creates a new SnapshotProcessor instance
func NewSnapshotProcessor(snapshots Snapshotter, lister ArtifactLister) *SnapshotProcessor {
	return &SnapshotProcessor{
		snapshots: snapshots,
		lister:    lister,
		dirty:     make(map[string]struct{}),
		retries:   make(map[string]int),
	}
}

// MarkDirty schedules a knowledge base for flushing on the next poll.
func (p *SnapshotProcessor) MarkDirty(kbID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty[kbID] = struct{}{}
}

// takeDirty drains the dirty set.
func (p *SnapshotProcessor) takeDirty() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.dirty))
	for id := range p.dirty {
		ids = append(ids, id)
	}
	p.dirty = make(map[string]struct{})
	sort.Strings(ids)
	return ids
}

// ProcessJobs implements the JobProcessor interface
func (p *SnapshotProcessor) ProcessJobs(ctx context.Context) error {
	ids := p.takeDirty()
	if len(ids) == 0 {
		return nil
	}

	log.Printf("Flushing %d dirty knowledge bases to backup storage", len(ids))

	for _, kbID := range ids {
		if err := p.flush(ctx, kbID); err != nil {
			log.Printf("Error flushing knowledge base %s: %v", kbID, err)
			p.handleFlushFailure(kbID)
		} else {
			p.mu.Lock()
			delete(p.retries, kbID)
			p.mu.Unlock()
		}
	}

	return nil
}

// flush snapshots a knowledge base, or purges its backup when it has been
// deleted locally.
func (p *SnapshotProcessor) flush(ctx context.Context, kbID string) error {
	artifacts, err := p.lister.Artifacts(ctx, kbID)
	if err != nil {
		return fmt.Errorf("failed to inspect artifacts: %w", err)
	}

	if len(artifacts) == 0 {
		log.Printf("Knowledge base %s deleted locally, purging backup", kbID)
		return p.snapshots.Purge(ctx, kbID)
	}
	return p.snapshots.Snapshot(ctx, kbID)
}

// handleFlushFailure re-queues a failed flush until MaxRetries is reached.
func (p *SnapshotProcessor) handleFlushFailure(kbID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.retries[kbID]++
	if p.retries[kbID] >= MaxRetries {
		log.Printf("Knowledge base %s exceeded max flush retries (%d), dropping", kbID, MaxRetries)
		delete(p.retries, kbID)
		return
	}
	p.dirty[kbID] = struct{}{}
}
