package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/embedding"
	"github.com/verseworks/poemrag/internal/llm"
	"github.com/verseworks/poemrag/internal/model"
	"github.com/verseworks/poemrag/internal/vectorstore"
)

const (
	defaultTitle  = "未知标题"
	defaultAuthor = "未知作者"

	errorDocTitle  = "查询错误"
	errorDocAuthor = "系统"

	systemInstruction = "你是一个智能助手，基于提供的文档内容创作诗歌。如果文档中没有相关信息，请诚实地告知用户。"
	answerFallback    = "抱歉，生成回答时遇到问题，请稍后再试。"
)

// Result is the full outcome of one retrieval-augmented query.
type Result struct {
	Query     string           `json:"query"`
	Documents []model.Document `json:"documents"`
	Answer    string           `json:"answer"`
}

// Pipeline composes embedding, vector search and answer synthesis. Its
// methods never return errors: per-request failures degrade to documented
// placeholder results so callers always receive a well-formed response.
type Pipeline struct {
	embedder embedding.Provider
	store    vectorstore.Store
	client   llm.Client
	timeout  time.Duration
}

func NewPipeline(embedder embedding.Provider, store vectorstore.Store, client llm.Client, llmTimeout time.Duration) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		store:    store,
		client:   client,
		timeout:  llmTimeout,
	}
}

// Search retrieves up to topK documents ranked by similarity. On failure it
// returns a single synthetic document carrying the error message, so the
// result list is always non-empty and well typed.
func (p *Pipeline) Search(ctx context.Context, query string, topK int) []model.Document {
	queryVector := p.embedder.EmbedQuery(ctx, query)

	hits, err := p.store.Search(ctx, queryVector, topK)
	if err != nil {
		logutil.GetLogger(ctx).Error("vector search failed", zap.String("query", query), zap.Error(err))
		return []model.Document{{
			Title:      errorDocTitle,
			Author:     errorDocAuthor,
			Content:    fmt.Sprintf("查询出错: %v", err),
			Similarity: 0.0,
		}}
	}

	documents := make([]model.Document, 0, len(hits))
	for _, hit := range hits {
		doc := model.Document{
			Title:   hit.Title,
			Author:  hit.Author,
			Content: hit.Content,
			// Inner-product distances fall in [-1,1]; map onto [0,1].
			// Revisit this mapping if the collection metric ever changes.
			Similarity: (float64(hit.Distance) + 1) / 2,
		}
		if doc.Title == "" {
			doc.Title = defaultTitle
		}
		if doc.Author == "" {
			doc.Author = defaultAuthor
		}
		documents = append(documents, doc)
	}
	return documents
}

// GenerateAnswer synthesizes an answer from the retrieved documents. Any
// backend failure yields a fixed apologetic fallback string.
func (p *Pipeline) GenerateAnswer(ctx context.Context, query string, documents []model.Document) string {
	blocks := make([]string, 0, len(documents))
	for _, doc := range documents {
		blocks = append(blocks, fmt.Sprintf("标题: %s\n作者: %s\n内容: %s", doc.Title, doc.Author, doc.Content))
	}
	contextBlock := strings.Join(blocks, "\n\n")

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemInstruction},
		{Role: llm.RoleUser, Content: fmt.Sprintf("根据以下文档内容:\n\n%s\n\n和问题: %s，生成一首新的诗歌。", contextBlock, query)},
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	answer, err := p.client.GetCompletion(ctx, messages)
	if err != nil || strings.TrimSpace(answer) == "" {
		logutil.GetLogger(ctx).Error("answer generation failed",
			zap.String("provider", p.client.Name()), zap.Error(err))
		return answerFallback
	}
	return answer
}

// Query runs the full retrieve-then-generate flow. No caching, no
// deduplication of repeated queries.
func (p *Pipeline) Query(ctx context.Context, query string, topK int) Result {
	documents := p.Search(ctx, query, topK)
	answer := p.GenerateAnswer(ctx, query, documents)
	return Result{
		Query:     query,
		Documents: documents,
		Answer:    answer,
	}
}
