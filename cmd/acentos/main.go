package main

import (
	"context"
	"database/sql"
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

	"github.com/acentos/bookstore/internal/ai"
	"github.com/acentos/bookstore/internal/config"
	"github.com/acentos/bookstore/internal/db"
	"github.com/acentos/bookstore/internal/filestore"
	"github.com/acentos/bookstore/internal/handler"
	"github.com/acentos/bookstore/internal/job"
	"github.com/acentos/bookstore/internal/middleware"
	"github.com/acentos/bookstore/internal/repo"
	"github.com/acentos/bookstore/internal/schedule"
	"github.com/acentos/bookstore/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "acentos",
		Short: "bookstore backend with AI recommendations",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(newRunCmd(&configPath))
	rootCmd.AddCommand(newEmbedCmd(&configPath))
	rootCmd.AddCommand(newImportCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
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

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

func newAIManager(cfg *config.Config) (*ai.Manager, error) {
	generator, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	var embedder ai.IEmbedProvider
	if ai.HasEmbedProvider(cfg.AI.Provider) {
		embedder, err = ai.NewEmbedProvider(cfg.AI.Provider, cfg.AI.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider: %w", err)
		}
	} else {
		logutil.GetLogger(context.Background()).Warn("provider has no embedding support, recommendations disabled",
			zap.String("provider", cfg.AI.Provider))
	}
	return ai.NewManager(generator, embedder, ai.ManagerConfig{
		ChatModel:  cfg.AI.ChatModel,
		EmbedModel: cfg.AI.EmbedModel,
		EmbedDims:  cfg.AI.EmbedDims,
		Timeout:    cfg.AI.TimeoutSeconds,
	}), nil
}

func embedOptions(cfg *config.Config) service.EmbedOptions {
	return service.EmbedOptions{
		BatchSize: cfg.Embedding.BatchSize,
		Delay:     time.Duration(cfg.Embedding.DelayMS) * time.Millisecond,
		Backoff:   time.Duration(cfg.Embedding.BackoffMS) * time.Millisecond,
	}
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the bookstore server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runServer(cfg, conn)
		},
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	bookRepo := repo.NewBookRepo(conn)
	favoriteRepo := repo.NewFavoriteRepo(conn)
	cartRepo := repo.NewCartRepo(conn)
	orderRepo := repo.NewOrderRepo(conn)

	manager, err := newAIManager(cfg)
	if err != nil {
		return err
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	catalogService := service.NewCatalogService(bookRepo)
	recommendService := service.NewRecommendService(manager, bookRepo, cfg.Recommend.TopK)
	synopsisService := service.NewSynopsisService(manager)
	favoriteService := service.NewFavoriteService(favoriteRepo, bookRepo)
	cartService := service.NewCartService(cartRepo, orderRepo, bookRepo)
	embeddingService := service.NewEmbeddingService(manager, bookRepo)

	deps := handler.RouterDeps{
		Books:       handler.NewBookHandler(catalogService),
		Recommend:   handler.NewRecommendHandler(recommendService),
		Synopsis:    handler.NewSynopsisHandler(synopsisService),
		Favorites:   handler.NewFavoriteHandler(favoriteService),
		Cart:        handler.NewCartHandler(cartService),
		Covers:      handler.NewCoverHandler(store),
		JWTSecret:   []byte(cfg.JWTSecret),
		AIRateLimit: time.Duration(cfg.Recommend.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Embedding.Schedule != "" {
		embedJob := job.NewEmbeddingJob(embeddingService, embedOptions(cfg))
		if err := scheduler.AddJob(embedJob, cfg.Embedding.Schedule); err != nil {
			return fmt.Errorf("schedule embedding job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func newEmbedCmd(configPath *string) *cobra.Command {
	var batchSize int
	var delayMS int
	var backoffMS int

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "generate embeddings for books that do not have one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			manager, err := newAIManager(cfg)
			if err != nil {
				return err
			}
			opts := embedOptions(cfg)
			if batchSize > 0 {
				opts.BatchSize = batchSize
			}
			if delayMS > 0 {
				opts.Delay = time.Duration(delayMS) * time.Millisecond
			}
			if backoffMS > 0 {
				opts.Backoff = time.Duration(backoffMS) * time.Millisecond
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := service.NewEmbeddingService(manager, repo.NewBookRepo(conn))
			report, err := svc.ProcessPending(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Printf("selected=%d embedded=%d failed=%d skipped=%d batches=%d failed_batches=%d\n",
				report.Selected, report.Embedded, report.Failed, report.Skipped, report.Batches, report.FailedBatches)
			if report.FailedBatches > 0 || report.Failed > 0 {
				return fmt.Errorf("%d of %d batches failed", report.FailedBatches, report.Batches)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "books per provider call")
	cmd.Flags().IntVar(&delayMS, "delay", 0, "pause between batches in milliseconds")
	cmd.Flags().IntVar(&backoffMS, "backoff", 0, "pause after a failed batch in milliseconds")
	return cmd
}

func newImportCmd(configPath *string) *cobra.Command {
	var filePath string
	var truncate bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "import books from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("--file is required")
			}
			_, conn, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := service.NewImportService(repo.NewBookRepo(conn))
			report, err := svc.ImportCSV(ctx, f, truncate)
			if err != nil {
				return err
			}
			fmt.Printf("created=%d updated=%d skipped=%d errors=%d\n",
				report.Created, report.Updated, report.Skipped, report.Errors)
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to the CSV file")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "empty the books table before importing")
	return cmd
}
