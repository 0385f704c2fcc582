package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/embedding"
	"github.com/verseworks/poemrag/internal/model"
	"github.com/verseworks/poemrag/internal/source"
	"github.com/verseworks/poemrag/internal/vectorstore"
)

const (
	jobID          = "poem_ingestion"
	jobDisplayName = "古诗文采集任务"
)

// Job fetches raw documents, embeds them and upserts the batch into the
// vector store. Run never lets a failure escape its boundary: every outcome,
// including panics, is reported as a structured IngestionOutcome because the
// job usually runs unattended on a timer.
type Job struct {
	source   source.Source
	embedder embedding.Provider
	store    vectorstore.Store
	now      func() time.Time
}

func NewJob(src source.Source, embedder embedding.Provider, store vectorstore.Store) *Job {
	return &Job{
		source:   src,
		embedder: embedder,
		store:    store,
		now:      time.Now,
	}
}

func (j *Job) ID() string {
	return jobID
}

func (j *Job) DisplayName() string {
	return jobDisplayName
}

func (j *Job) Run(ctx context.Context) (outcome model.IngestionOutcome) {
	logger := logutil.GetLogger(ctx).With(zap.String("job", jobID))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ingestion panicked", zap.Any("panic", r))
			outcome = model.IngestionOutcome{
				Status:  model.StatusError,
				Message: fmt.Sprintf("采集任务异常: %v", r),
			}
		}
	}()

	raws, err := j.source.Fetch(ctx)
	if err != nil {
		logger.Error("fetch failed", zap.Error(err))
		return model.IngestionOutcome{
			Status:  model.StatusError,
			Message: fmt.Sprintf("采集失败: %v", err),
		}
	}

	createdAt := j.now().Unix()
	records := make([]vectorstore.Record, 0, len(raws))
	for _, raw := range raws {
		vec := j.embedder.EmbedQuery(ctx, raw.Content)
		// A zero vector is the provider's failure fallback; skip the item
		// instead of aborting the batch.
		if embedding.IsZeroVector(vec) {
			logger.Warn("embedding failed, skipping item", zap.String("title", raw.Title))
			continue
		}
		records = append(records, vectorstore.Record{
			Title:     raw.Title,
			Author:    raw.Author,
			Content:   raw.Content,
			Embedding: vec,
			CreatedAt: createdAt,
		})
	}

	if len(records) == 0 {
		logger.Info("nothing to insert", zap.Int("fetched", len(raws)))
		return model.IngestionOutcome{
			Status:  model.StatusWarning,
			Message: "没有数据可插入",
		}
	}

	if err := j.store.EnsureCollection(ctx); err != nil {
		logger.Error("ensure collection failed", zap.Error(err))
		return model.IngestionOutcome{
			Status:  model.StatusError,
			Message: fmt.Sprintf("插入数据库出错: %v", err),
		}
	}
	inserted, err := j.store.Insert(ctx, records)
	if err != nil {
		logger.Error("insert failed", zap.Error(err))
		return model.IngestionOutcome{
			Status:  model.StatusError,
			Message: fmt.Sprintf("插入数据库出错: %v", err),
		}
	}

	logger.Info("ingestion finished", zap.Int("fetched", len(raws)), zap.Int("inserted", inserted))
	return model.IngestionOutcome{
		Status:        model.StatusSuccess,
		Message:       fmt.Sprintf("成功采集并存储%d首诗", inserted),
		InsertedCount: inserted,
	}
}
