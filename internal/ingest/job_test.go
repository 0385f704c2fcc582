package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verseworks/poemrag/internal/model"
	"github.com/verseworks/poemrag/internal/vectorstore"
)

type stubSource struct {
	docs  []model.RawDocument
	err   error
	panic bool
}

func (s *stubSource) Fetch(ctx context.Context) ([]model.RawDocument, error) {
	if s.panic {
		panic("scraper blew up")
	}
	return s.docs, s.err
}

type stubEmbedder struct {
	dim      int
	failText map[string]bool
}

func (s *stubEmbedder) Dim() int { return s.dim }

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) []float32 {
	vec := make([]float32, s.dim)
	if s.failText[text] {
		return vec
	}
	vec[0] = 1
	return vec
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = s.EmbedQuery(ctx, text)
	}
	return out
}

type stubStore struct {
	ensureErr  error
	insertErr  error
	ensured    bool
	inserted   []vectorstore.Record
	insertSeen int
}

func (s *stubStore) EnsureCollection(ctx context.Context) error {
	s.ensured = true
	return s.ensureErr
}

func (s *stubStore) Insert(ctx context.Context, records []vectorstore.Record) (int, error) {
	s.insertSeen++
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.inserted = records
	return len(records), nil
}

func (s *stubStore) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Hit, error) {
	return nil, nil
}

func poems() []model.RawDocument {
	return []model.RawDocument{
		{Title: "静夜思", Author: "唐·李白", Content: "床前明月光"},
		{Title: "春晓", Author: "唐·孟浩然", Content: "春眠不觉晓"},
	}
}

func TestJobRun_Success(t *testing.T) {
	store := &stubStore{}
	job := NewJob(&stubSource{docs: poems()}, &stubEmbedder{dim: 4}, store)

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusSuccess, outcome.Status)
	require.Equal(t, 2, outcome.InsertedCount)
	require.True(t, store.ensured)
	require.Len(t, store.inserted, 2)
	require.Equal(t, "静夜思", store.inserted[0].Title)
	require.NotZero(t, store.inserted[0].CreatedAt)
}

func TestJobRun_SkipsFailedEmbeddings(t *testing.T) {
	store := &stubStore{}
	embedder := &stubEmbedder{dim: 4, failText: map[string]bool{"床前明月光": true}}
	job := NewJob(&stubSource{docs: poems()}, embedder, store)

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusSuccess, outcome.Status)
	require.Equal(t, 1, outcome.InsertedCount)
	require.Len(t, store.inserted, 1)
	require.Equal(t, "春晓", store.inserted[0].Title)
}

func TestJobRun_NothingToInsert(t *testing.T) {
	store := &stubStore{}
	job := NewJob(&stubSource{}, &stubEmbedder{dim: 4}, store)

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusWarning, outcome.Status)
	require.Zero(t, outcome.InsertedCount)
	require.False(t, store.ensured)
	require.Zero(t, store.insertSeen)
}

func TestJobRun_AllEmbeddingsFail(t *testing.T) {
	store := &stubStore{}
	embedder := &stubEmbedder{dim: 4, failText: map[string]bool{"床前明月光": true, "春眠不觉晓": true}}
	job := NewJob(&stubSource{docs: poems()}, embedder, store)

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusWarning, outcome.Status)
	require.Zero(t, store.insertSeen)
}

func TestJobRun_FetchError(t *testing.T) {
	job := NewJob(&stubSource{err: errors.New("page unreachable")}, &stubEmbedder{dim: 4}, &stubStore{})

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Contains(t, outcome.Message, "page unreachable")
}

func TestJobRun_EnsureCollectionError(t *testing.T) {
	store := &stubStore{ensureErr: errors.New("milvus down")}
	job := NewJob(&stubSource{docs: poems()}, &stubEmbedder{dim: 4}, store)

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Contains(t, outcome.Message, "milvus down")
	require.Zero(t, store.insertSeen)
}

func TestJobRun_InsertError(t *testing.T) {
	store := &stubStore{insertErr: errors.New("flush failed")}
	job := NewJob(&stubSource{docs: poems()}, &stubEmbedder{dim: 4}, store)

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Contains(t, outcome.Message, "flush failed")
}

func TestJobRun_RecoversFromPanic(t *testing.T) {
	job := NewJob(&stubSource{panic: true}, &stubEmbedder{dim: 4}, &stubStore{})

	outcome := job.Run(context.Background())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Contains(t, outcome.Message, "scraper blew up")
}

func TestJobIdentity(t *testing.T) {
	job := NewJob(&stubSource{}, &stubEmbedder{dim: 4}, &stubStore{})
	require.Equal(t, "poem_ingestion", job.ID())
	require.NotEmpty(t, job.DisplayName())
}
