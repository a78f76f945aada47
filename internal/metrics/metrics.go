// Package metrics exposes Prometheus instrumentation for the retrieval
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsIngested counts successfully ingested documents by source kind.
	DocumentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "botsy_documents_ingested_total",
		Help: "Documents ingested into knowledge bases.",
	}, []string{"kind"})

	// ChunksIngested counts chunks written to knowledge bases.
	ChunksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botsy_chunks_ingested_total",
		Help: "Chunks written to knowledge bases.",
	})

	// IngestFailures counts failed ingestion attempts by source kind.
	IngestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "botsy_ingest_failures_total",
		Help: "Failed ingestion attempts.",
	}, []string{"kind"})

	// SearchRequests counts similarity searches.
	SearchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botsy_search_requests_total",
		Help: "Similarity search requests.",
	})

	// SearchDuration observes end-to-end search latency.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "botsy_search_duration_seconds",
		Help:    "Similarity search latency.",
		Buckets: prometheus.DefBuckets,
	})

	// EmbeddingFallbacks counts embeddings degraded to zero vectors.
	EmbeddingFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botsy_embedding_fallbacks_total",
		Help: "Embedding requests degraded to zero vectors.",
	})
)
