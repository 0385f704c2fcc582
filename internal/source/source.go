package source

import (
	"context"

	"github.com/verseworks/poemrag/internal/model"
)

// Source yields one finite, ordered batch of raw documents per ingestion
// run. A batch may be empty; a fetch error is fatal for that run only.
type Source interface {
	Fetch(ctx context.Context) ([]model.RawDocument, error)
}
