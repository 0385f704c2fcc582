package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/config"
)

const (
	fieldID        = "id"
	fieldTitle     = "title"
	fieldAuthor    = "author"
	fieldContent   = "content"
	fieldEmbedding = "embedding"
	fieldCreatedAt = "created_at"

	maxTitleLength   = 256
	maxAuthorLength  = 256
	maxContentLength = 20000
)

// MilvusStore implements Store on a Milvus collection. The network session
// is established lazily on first use; once it cannot be established every
// operation fails with a connectivity error instead of hanging.
type MilvusStore struct {
	cfg     config.MilvusConfig
	timeout time.Duration

	mu     sync.Mutex
	client *milvusclient.Client
}

func NewMilvusStore(cfg config.MilvusConfig) *MilvusStore {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MilvusStore{cfg: cfg, timeout: timeout}
}

// Ping forces session establishment so startup can fail fast when the
// vector database is unreachable.
func (m *MilvusStore) Ping(ctx context.Context) error {
	_, err := m.ensureClient(ctx)
	return err
}

func (m *MilvusStore) ensureClient(ctx context.Context) (*milvusclient.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	client, err := milvusclient.New(dialCtx, &milvusclient.ClientConfig{
		Address: m.cfg.Address,
		DBName:  m.cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotConnected, m.cfg.Address, err)
	}
	logutil.GetLogger(ctx).Info("connected to milvus",
		zap.String("address", m.cfg.Address), zap.String("database", m.cfg.Database))
	m.client = client
	return m.client, nil
}

func (m *MilvusStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

func (m *MilvusStore) collectionSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: m.cfg.Collection,
		Description:    "poem documents with embeddings",
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       fieldID,
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:       fieldTitle,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxTitleLength)},
			},
			{
				Name:       fieldAuthor,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxAuthorLength)},
			},
			{
				Name:       fieldContent,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxContentLength)},
			},
			{
				Name:       fieldEmbedding,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(m.cfg.Dim)},
			},
			{
				Name:     fieldCreatedAt,
				DataType: entity.FieldTypeInt64,
			},
		},
	}
}

func (m *MilvusStore) EnsureCollection(ctx context.Context) error {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return err
	}
	opCtx, cancel := m.opCtx(ctx)
	defer cancel()

	has, err := client.HasCollection(opCtx, milvusclient.NewHasCollectionOption(m.cfg.Collection))
	if err != nil {
		return fmt.Errorf("check collection %s: %w", m.cfg.Collection, err)
	}
	if !has {
		createOpt := milvusclient.NewCreateCollectionOption(m.cfg.Collection, m.collectionSchema()).
			WithIndexOptions(milvusclient.NewCreateIndexOption(m.cfg.Collection, fieldEmbedding,
				index.NewIvfFlatIndex(entity.IP, m.cfg.NList)))
		if err := client.CreateCollection(opCtx, createOpt); err != nil {
			// A concurrent caller may have won the create race; re-check
			// before reporting failure.
			exists, hasErr := client.HasCollection(opCtx, milvusclient.NewHasCollectionOption(m.cfg.Collection))
			if hasErr != nil || !exists {
				return fmt.Errorf("create collection %s: %w", m.cfg.Collection, err)
			}
		} else {
			logutil.GetLogger(ctx).Info("collection created",
				zap.String("collection", m.cfg.Collection),
				zap.Int("dim", m.cfg.Dim), zap.Int("nlist", m.cfg.NList))
		}
	}
	if _, err := client.LoadCollection(opCtx, milvusclient.NewLoadCollectionOption(m.cfg.Collection)); err != nil {
		return fmt.Errorf("load collection %s: %w", m.cfg.Collection, err)
	}
	return nil
}

func (m *MilvusStore) Insert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	client, err := m.ensureClient(ctx)
	if err != nil {
		return 0, err
	}
	opCtx, cancel := m.opCtx(ctx)
	defer cancel()

	titles := make([]string, len(records))
	authors := make([]string, len(records))
	contents := make([]string, len(records))
	vectors := make([][]float32, len(records))
	createdAt := make([]int64, len(records))
	for i, rec := range records {
		titles[i] = truncate(rec.Title, maxTitleLength)
		authors[i] = truncate(rec.Author, maxAuthorLength)
		contents[i] = truncate(rec.Content, maxContentLength)
		vectors[i] = rec.Embedding
		createdAt[i] = rec.CreatedAt
	}

	columns := []column.Column{
		column.NewColumnVarChar(fieldTitle, titles),
		column.NewColumnVarChar(fieldAuthor, authors),
		column.NewColumnVarChar(fieldContent, contents),
		column.NewColumnFloatVector(fieldEmbedding, m.cfg.Dim, vectors),
		column.NewColumnInt64(fieldCreatedAt, createdAt),
	}
	result, err := client.Insert(opCtx, milvusclient.NewColumnBasedInsertOption(m.cfg.Collection, columns...))
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", m.cfg.Collection, err)
	}

	// Explicit flush so the batch is visible to subsequent searches.
	flushCtx, flushCancel := m.opCtx(ctx)
	defer flushCancel()
	task, err := client.Flush(flushCtx, milvusclient.NewFlushOption(m.cfg.Collection))
	if err != nil {
		return 0, fmt.Errorf("flush %s: %w", m.cfg.Collection, err)
	}
	if err := task.Await(flushCtx); err != nil {
		return 0, fmt.Errorf("await flush %s: %w", m.cfg.Collection, err)
	}
	logutil.GetLogger(ctx).Info("records inserted",
		zap.String("collection", m.cfg.Collection), zap.Int64("count", result.InsertCount))
	return int(result.InsertCount), nil
}

func (m *MilvusStore) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := m.opCtx(ctx)
	defer cancel()

	searchOpt := milvusclient.NewSearchOption(m.cfg.Collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(fieldEmbedding).
		WithOutputFields(fieldTitle, fieldAuthor, fieldContent).
		WithConsistencyLevel(entity.ClBounded)
	results, err := client.Search(opCtx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", m.cfg.Collection, err)
	}
	if len(results) == 0 {
		return []Hit{}, nil
	}
	return convertResultSet(results[0])
}

func convertResultSet(rs milvusclient.ResultSet) ([]Hit, error) {
	hits := make([]Hit, len(rs.Scores))
	for i, score := range rs.Scores {
		hits[i].Distance = score
	}
	for _, col := range rs.Fields {
		for i := 0; i < col.Len() && i < len(hits); i++ {
			val, err := col.Get(i)
			if err != nil {
				return nil, fmt.Errorf("read column %s: %w", col.Name(), err)
			}
			str, ok := val.(string)
			if !ok {
				continue
			}
			switch col.Name() {
			case fieldTitle:
				hits[i].Title = str
			case fieldAuthor:
				hits[i].Author = str
			case fieldContent:
				hits[i].Content = str
			}
		}
	}
	return hits, nil
}

// truncate limits by character count, matching the varchar max_length
// semantics of the collection fields.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
