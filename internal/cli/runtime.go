package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/botsy-ai/botsy/internal/chunker"
	"github.com/botsy-ai/botsy/internal/config"
	"github.com/botsy-ai/botsy/internal/database"
	"github.com/botsy-ai/botsy/internal/embedding"
	"github.com/botsy-ai/botsy/internal/extract"
	"github.com/botsy-ai/botsy/internal/fetch"
	"github.com/botsy-ai/botsy/internal/index"
	"github.com/botsy-ai/botsy/internal/openai"
	"github.com/botsy-ai/botsy/internal/repository"
	"github.com/botsy-ai/botsy/internal/service"
)

// runtime bundles the wired pipeline shared by the serve and offline
// commands. fileStore is nil when the Postgres backend is active.
type runtime struct {
	cfg       *config.Config
	store     service.Store
	fileStore *index.FileStore
	retriever *service.Retriever
	cleanup   func()
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	rt := &runtime{cfg: cfg, cleanup: func() {}}

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.store = repository.NewPostgresStore(pool)
		rt.cleanup = pool.Close
	} else {
		fileStore, err := index.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data dir: %w", err)
		}
		rt.store = fileStore
		rt.fileStore = fileStore
	}
	return rt, nil
}

// buildRetriever wires the pipeline over the runtime's store.
func (rt *runtime) buildRetriever(opts ...service.RetrieverOption) *service.Retriever {
	cfg := rt.cfg
	if cfg.HasOpenAI() {
		opts = append(opts, service.WithRemoteEmbedder(openai.NewClient(cfg.OpenAIAPIKey)))
		log.Println("using remote embeddings")
	}

	rt.retriever = service.NewRetriever(
		rt.store,
		chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		extract.NewRegistry(),
		fetch.NewFetcher(time.Duration(cfg.FetchTimeoutSeconds)*time.Second),
		embedding.NewService(cfg.EmbedWorkers, 0),
		opts...,
	)
	return rt.retriever
}

func (rt *runtime) contextPolicy() service.ContextPolicy {
	return service.ContextPolicy{
		MinSimilarity:   rt.cfg.MinSimilarity,
		MaxContextChars: rt.cfg.MaxContextChars,
		ForceTopResults: rt.cfg.ForceTopResults,
		MaxSources:      rt.cfg.MaxSources,
	}
}
