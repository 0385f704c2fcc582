package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 30 * time.Second

type DashScopeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Dim     int
}

// DashScopeProvider calls the DashScope text-embedding endpoint. One request
// embeds a whole batch; the configured dimension is requested explicitly so
// every stored vector has the same length.
type DashScopeProvider struct {
	apiKey  string
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

type embedRequest struct {
	Model string `json:"model"`
	Input struct {
		Texts []string `json:"texts"`
	} `json:"input"`
	Parameters struct {
		Dimension int `json:"dimension"`
	} `json:"parameters"`
}

type embedResponse struct {
	Output struct {
		Embeddings []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"embeddings"`
	} `json:"output"`
}

func NewDashScopeProvider(cfg DashScopeConfig) (*DashScopeProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("dashscope api key is required")
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = 1024
	}
	return &DashScopeProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimSpace(cfg.BaseURL),
		model:   cfg.Model,
		dim:     dim,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

func (p *DashScopeProvider) Dim() int {
	return p.dim
}

func (p *DashScopeProvider) EmbedQuery(ctx context.Context, text string) []float32 {
	vecs, err := p.embed(ctx, []string{text})
	if err != nil || len(vecs) != 1 {
		logutil.GetLogger(ctx).Error("embed query failed, using zero vector", zap.Error(err))
		return zeroVector(p.dim)
	}
	return vecs[0]
}

func (p *DashScopeProvider) EmbedDocuments(ctx context.Context, texts []string) [][]float32 {
	if len(texts) == 0 {
		return [][]float32{}
	}
	vecs, err := p.embed(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		logutil.GetLogger(ctx).Error("embed documents failed, using zero vectors",
			zap.Int("count", len(texts)), zap.Error(err))
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = zeroVector(p.dim)
		}
		return out
	}
	return vecs
}

// embed is the fallible inner call; the exported methods convert its
// failures into the documented zero-vector default at the boundary.
func (p *DashScopeProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embedRequest{Model: p.model}
	reqBody.Input.Texts = texts
	reqBody.Parameters.Dimension = p.dim
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dashscope embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Output.Embeddings) != len(texts) {
		return nil, fmt.Errorf("dashscope returned %d embeddings for %d texts", len(out.Output.Embeddings), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for i, item := range out.Output.Embeddings {
		if len(item.Embedding) != p.dim {
			return nil, fmt.Errorf("dashscope returned vector of dim %d, expected %d", len(item.Embedding), p.dim)
		}
		vecs[i] = item.Embedding
	}
	return vecs, nil
}
