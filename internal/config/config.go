package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Milvus    MilvusConfig     `json:"milvus"`
	Embedding EmbeddingConfig  `json:"embedding"`
	LLM       LLMConfig        `json:"llm"`
	Source    SourceConfig     `json:"source"`
	Schedule  ScheduleConfig   `json:"schedule"`
}

type MilvusConfig struct {
	Address        string `json:"address"`
	Database       string `json:"database"`
	Collection     string `json:"collection"`
	Dim            int    `json:"dim"`
	NList          int    `json:"nlist"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type EmbeddingConfig struct {
	APIKey          string `json:"api_key"`
	BaseURL         string `json:"base_url"`
	Model           string `json:"model"`
	CacheSize       int    `json:"cache_size"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
}

type LLMConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	Data           interface{} `json:"data"`
	TimeoutSeconds int         `json:"timeout_seconds"`
}

type SourceConfig struct {
	PageURL  string         `json:"page_url"`
	Snapshot SnapshotConfig `json:"snapshot"`
}

// SnapshotConfig selects where raw crawl batches are archived as CSV.
// Empty Type disables snapshots entirely.
type SnapshotConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	Cron string `json:"cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Milvus.Address == "" {
		return nil, fmt.Errorf("milvus.address is required")
	}
	if cfg.Milvus.Database == "" {
		cfg.Milvus.Database = "default"
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = "poems"
	}
	if cfg.Milvus.Dim == 0 {
		cfg.Milvus.Dim = 1024
	}
	if cfg.Milvus.NList == 0 {
		cfg.Milvus.NList = 128
	}
	if cfg.Milvus.TimeoutSeconds == 0 {
		cfg.Milvus.TimeoutSeconds = 10
	}
	if cfg.Embedding.APIKey == "" {
		return nil, fmt.Errorf("embedding.api_key is required")
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://dashscope.aliyuncs.com/api/v1/services/embeddings/text-embedding/text-embedding"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-v3"
	}
	if cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm.provider is required")
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
	if cfg.Source.PageURL == "" {
		return nil, fmt.Errorf("source.page_url is required")
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 2 * * *"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
