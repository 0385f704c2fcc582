package embedding

import "context"

// Provider turns text into fixed-dimension vectors. The methods never fail:
// a transport or backend error degrades to a zero-filled vector of the
// canonical dimension so that one bad call can neither abort an ingestion
// batch nor crash a live query. Failures are logged where they happen;
// IsZeroVector recognizes the fallback.
type Provider interface {
	Dim() int
	EmbedQuery(ctx context.Context, text string) []float32
	EmbedDocuments(ctx context.Context, texts []string) [][]float32
}

// IsZeroVector reports whether vec is the all-zero failure fallback (or
// empty). Real embedding models never produce an exactly zero vector.
func IsZeroVector(vec []float32) bool {
	if len(vec) == 0 {
		return true
	}
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func zeroVector(dim int) []float32 {
	return make([]float32, dim)
}
