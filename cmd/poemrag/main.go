package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/config"
	"github.com/verseworks/poemrag/internal/embedding"
	"github.com/verseworks/poemrag/internal/handler"
	"github.com/verseworks/poemrag/internal/ingest"
	"github.com/verseworks/poemrag/internal/llm"
	"github.com/verseworks/poemrag/internal/middleware"
	"github.com/verseworks/poemrag/internal/rag"
	"github.com/verseworks/poemrag/internal/schedule"
	"github.com/verseworks/poemrag/internal/source"
	"github.com/verseworks/poemrag/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "poemrag",
		Short: "poemrag backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run poemrag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("milvus", cfg.Milvus.Address),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	providerArgs := cfg.LLM.Data
	if providerArgs == nil {
		providerArgs = cfg.LLM
	}
	llmClient, err := llm.New(cfg.LLM.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}

	var embedder embedding.Provider
	embedder, err = embedding.NewDashScopeProvider(embedding.DashScopeConfig{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
		Dim:     cfg.Milvus.Dim,
	})
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.WithLRUCache(embedder, cfg.Embedding.CacheSize,
			time.Duration(cfg.Embedding.CacheTTLMinutes)*time.Minute)
	}

	store := vectorstore.NewMilvusStore(cfg.Milvus)
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("connect milvus: %w", err)
	}

	pipeline := rag.NewPipeline(embedder, store, llmClient,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)

	snapshots, err := source.NewSnapshotStore(cfg.Source.Snapshot)
	if err != nil {
		return fmt.Errorf("init snapshot store: %w", err)
	}
	webSource := source.NewWebSource(cfg.Source.PageURL, snapshots)
	job := ingest.NewJob(webSource, embedder, store)

	manager := schedule.NewManager()
	if err := manager.Register(ctx, job, cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("register ingestion job: %w", err)
	}
	manager.Start(ctx)
	defer manager.Stop()

	deps := handler.RouterDeps{
		Query:     handler.NewQueryHandler(pipeline),
		Scheduler: handler.NewSchedulerHandler(manager),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}
