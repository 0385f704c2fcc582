package vectorstore

import (
	"context"
	"errors"
)

// ErrNotConnected wraps every operation failure caused by an unreachable
// vector database session.
var ErrNotConnected = errors.New("vector store not connected")

// Record is one persisted tuple. Records are created only by ingestion
// upserts and are never updated in place or deleted here.
type Record struct {
	Title     string
	Author    string
	Content   string
	Embedding []float32
	CreatedAt int64
}

// Hit is one raw search result. Distance is the raw metric value (inner
// product here); normalization to a similarity score is the caller's job.
type Hit struct {
	Title    string
	Author   string
	Content  string
	Distance float32
}

// Store is a persistent collection of (vector, metadata) records with
// approximate nearest-neighbor search.
type Store interface {
	// EnsureCollection creates the collection with its similarity index if
	// absent, otherwise returns without altering schema or index. Safe under
	// concurrent callers: duplicate-create races resolve to use-existing.
	EnsureCollection(ctx context.Context) error
	// Insert appends records and flushes so they become visible to
	// subsequent searches. Returns the number of inserted records.
	Insert(ctx context.Context, records []Record) (int, error)
	// Search returns at most topK hits ordered by descending relevance.
	// topK <= 0 is a caller error.
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)
}
