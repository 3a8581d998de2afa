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

	"github.com/xxxsen/bookqa/internal/ai"
	"github.com/xxxsen/bookqa/internal/config"
	"github.com/xxxsen/bookqa/internal/contentstore"
	"github.com/xxxsen/bookqa/internal/corpus"
	"github.com/xxxsen/bookqa/internal/embedcache"
	"github.com/xxxsen/bookqa/internal/handler"
	"github.com/xxxsen/bookqa/internal/job"
	"github.com/xxxsen/bookqa/internal/middleware"
	"github.com/xxxsen/bookqa/internal/schedule"
	"github.com/xxxsen/bookqa/internal/service"
	"github.com/xxxsen/bookqa/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "bookqa",
		Short: "course content question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the qa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "build the vector index from the corpus and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runIndex(cfg)
		},
	}
	indexCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(runCmd, indexCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
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
	return cfg, nil
}

type app struct {
	rag     *service.RAGService
	indexer *service.IndexService
}

func buildApp(cfg *config.Config) (*app, error) {
	source, err := corpus.NewSource(cfg.Corpus)
	if err != nil {
		return nil, fmt.Errorf("init corpus source: %w", err)
	}
	loader := corpus.NewLoader(source, cfg.Corpus.MaxChunkChars, cfg.Corpus.MinChunkChars)

	store, err := vectorstore.New(cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	content := contentstore.New(store, 0, 0)

	embedProvider, err := ai.NewProvider(cfg.AI.Embedder.Provider, cfg.AI.Embedder.Data)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.Embedder.Model)
	if cfg.AI.EmbedCacheSize > 0 {
		embedder = embedcache.WrapLRU(embedder, cfg.AI.EmbedCacheSize, time.Duration(cfg.AI.EmbedCacheTTL)*time.Minute)
	}

	var remote service.AnswerGenerator
	if cfg.AI.Generator != nil {
		genProvider, err := ai.NewProvider(cfg.AI.Generator.Provider, cfg.AI.Generator.Data)
		if err != nil {
			return nil, fmt.Errorf("init generator provider: %w", err)
		}
		gen := ai.NewGenerator(genProvider, cfg.AI.Generator.Model, ai.GenOptions{
			SystemInstruction: service.AnswerSystemInstruction,
			Temperature:       0.3,
			MaxOutputTokens:   1024,
		})
		remote = service.NewRemoteGenerator(gen, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	}
	generator := service.NewFallbackGenerator(remote, service.NewExtractiveGenerator())

	rag := service.NewRAGService(embedder, store, content, generator, service.RAGOptions{
		Confidence:      cfg.RAG.Confidence,
		VerifyGrounding: cfg.RAG.VerifyGrounding,
		RetrieveLimit:   cfg.RAG.RetrieveLimit,
	})
	indexer := service.NewIndexService(loader, embedder, store, content, cfg.VectorStore.Dimension, cfg.RAG.UploadBatchSize)
	return &app{rag: rag, indexer: indexer}, nil
}

func runIndex(cfg *config.Config) error {
	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	indexed, err := application.indexer.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	logutil.GetLogger(ctx).Info("index built", zap.Int("indexed_chunks", indexed))
	return nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("corpus_source", cfg.Corpus.Source),
		zap.String("vector_store", cfg.VectorStore.Type),
	)

	application, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.indexer.EnsureReady(ctx); err != nil {
		return fmt.Errorf("prepare index: %w", err)
	}

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(application.rag),
		Search:        handler.NewSearchHandler(application.rag),
		Admin:         handler.NewAdminHandler(application.indexer, cfg.AdminToken),
		Info:          handler.NewInfoHandler(),
		RateLimitSpan: time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	var scheduler schedule.Scheduler
	if cfg.Schedule.Reindex != "" {
		cronScheduler := schedule.NewCronScheduler()
		if err := cronScheduler.AddJob(job.NewReindexJob(application.indexer), cfg.Schedule.Reindex); err != nil {
			return fmt.Errorf("schedule reindex: %w", err)
		}
		cronScheduler.Start(ctx)
		scheduler = cronScheduler
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	if scheduler != nil {
		scheduler.Stop()
	}
	return nil
}
