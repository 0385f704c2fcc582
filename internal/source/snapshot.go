package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verseworks/poemrag/internal/config"
	"github.com/verseworks/poemrag/internal/model"
)

// SnapshotStore archives the raw output of a crawl. Snapshots are a
// convenience for later inspection; nothing in the query or ingestion path
// reads them back.
type SnapshotStore interface {
	Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error
}

type SnapshotFactory func(args interface{}) (SnapshotStore, error)

var snapshotRegistry = map[string]SnapshotFactory{}

func RegisterSnapshotStore(name string, factory SnapshotFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	snapshotRegistry[key] = factory
}

// NewSnapshotStore builds the configured snapshot store. An empty type
// disables snapshotting and returns nil.
func NewSnapshotStore(cfg config.SnapshotConfig) (SnapshotStore, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, nil
	}
	factory := snapshotRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported snapshot store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeSnapshotConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("snapshot store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode snapshot store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode snapshot store config: %w", err)
	}
	return nil
}

// encodeSnapshotCSV renders one fetched batch as a CSV document. The BOM
// keeps spreadsheet tools from mangling the UTF-8 content.
func encodeSnapshotCSV(docs []model.RawDocument, fetchedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"title", "author", "content", "created_at"}); err != nil {
		return nil, err
	}
	stamp := fetchedAt.Format("2006-01-02 15:04:05")
	for _, doc := range docs {
		if err := w.Write([]string{doc.Title, doc.Author, doc.Content, stamp}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func snapshotKey(fetchedAt time.Time) string {
	return "poems" + fetchedAt.Format("2006-01-02") + ".csv"
}
