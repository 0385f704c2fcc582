package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, dim, req.Parameters.Dimension)

		var out embedResponse
		for range req.Input.Texts {
			vec := make([]float32, dim)
			vec[0] = 0.5
			out.Output.Embeddings = append(out.Output.Embeddings, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestDashScopeProvider_EmbedQuery(t *testing.T) {
	server := embedServer(t, 4)
	defer server.Close()

	provider, err := NewDashScopeProvider(DashScopeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "text-embedding-v3",
		Dim:     4,
	})
	require.NoError(t, err)

	vec := provider.EmbedQuery(context.Background(), "静夜思")
	require.Len(t, vec, 4)
	require.False(t, IsZeroVector(vec))
}

func TestDashScopeProvider_EmbedQuery_BackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, err := NewDashScopeProvider(DashScopeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Dim:     4,
	})
	require.NoError(t, err)

	vec := provider.EmbedQuery(context.Background(), "静夜思")
	require.Len(t, vec, 4)
	require.True(t, IsZeroVector(vec))
}

func TestDashScopeProvider_EmbedQuery_WrongDim(t *testing.T) {
	server := embedServer(t, 4)
	defer server.Close()

	provider, err := NewDashScopeProvider(DashScopeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Dim:     8,
	})
	require.NoError(t, err)

	// The backend answers with 4-dim vectors; the provider insists on 8.
	vec := provider.EmbedQuery(context.Background(), "静夜思")
	require.Len(t, vec, 8)
	require.True(t, IsZeroVector(vec))
}

func TestDashScopeProvider_EmbedDocuments(t *testing.T) {
	server := embedServer(t, 4)
	defer server.Close()

	provider, err := NewDashScopeProvider(DashScopeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Dim:     4,
	})
	require.NoError(t, err)

	vecs := provider.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.Len(t, vecs, 3)
	for _, vec := range vecs {
		require.Len(t, vec, 4)
		require.False(t, IsZeroVector(vec))
	}
}

func TestDashScopeProvider_EmbedDocuments_Empty(t *testing.T) {
	provider, err := NewDashScopeProvider(DashScopeConfig{APIKey: "test-key", Dim: 4})
	require.NoError(t, err)

	vecs := provider.EmbedDocuments(context.Background(), nil)
	require.Empty(t, vecs)
}

func TestDashScopeProvider_EmbedDocuments_BackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewDashScopeProvider(DashScopeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Dim:     4,
	})
	require.NoError(t, err)

	vecs := provider.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.Len(t, vecs, 2)
	for _, vec := range vecs {
		require.True(t, IsZeroVector(vec))
	}
}

func TestNewDashScopeProvider_MissingKey(t *testing.T) {
	_, err := NewDashScopeProvider(DashScopeConfig{})
	require.Error(t, err)
}

func TestIsZeroVector(t *testing.T) {
	require.True(t, IsZeroVector(nil))
	require.True(t, IsZeroVector([]float32{0, 0, 0}))
	require.False(t, IsZeroVector([]float32{0, 0.1, 0}))
}
