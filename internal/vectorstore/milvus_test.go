package vectorstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verseworks/poemrag/internal/config"
)

func TestSearch_RejectsNonPositiveTopK(t *testing.T) {
	store := NewMilvusStore(config.MilvusConfig{Address: "localhost:19530", Collection: "poems", Dim: 4})

	_, err := store.Search(context.Background(), []float32{0, 0, 0, 0}, 0)
	require.Error(t, err)
	_, err = store.Search(context.Background(), []float32{0, 0, 0, 0}, -1)
	require.Error(t, err)
}

func TestCollectionSchema(t *testing.T) {
	store := NewMilvusStore(config.MilvusConfig{Collection: "poems", Dim: 1024, NList: 128})

	schema := store.collectionSchema()
	require.Equal(t, "poems", schema.CollectionName)
	require.True(t, schema.AutoID)
	require.Len(t, schema.Fields, 6)
	require.Equal(t, fieldID, schema.Fields[0].Name)
	require.True(t, schema.Fields[0].PrimaryKey)
	require.Equal(t, "1024", schema.Fields[4].TypeParams["dim"])
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 10))
	require.Equal(t, "ab", truncate("abcd", 2))
	require.Equal(t, "床前", truncate(strings.Repeat("床前明月光", 100), 2))
}
