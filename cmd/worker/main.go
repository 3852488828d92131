package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/service/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/store"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/queue"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/worker"
)

var (
	configPath string
	once       bool
)

var rootCmd = &cobra.Command{
	Use:   "study-worker",
	Short: "Run the document retention sweep",
	Long: `Runs an asynq server for documents:cleanup tasks and a scheduler that
enqueues one on the configured cron spec. With --once a single sweep is
enqueued and the command exits.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().BoolVar(&once, "once", false, "enqueue one cleanup and exit")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithRotation(cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
		logger.WithInitialFields(map[string]interface{}{"service": "study-worker"}),
	)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Retention.Period <= 0 {
		log.Info("Retention disabled, nothing to do")
		return nil
	}
	if cfg.Store.Backend == "memory" {
		log.Warn("Memory store is private to each process, the sweep will not see server documents")
	}

	redisOpt := queue.RedisOpt(cfg.Store.Redis)

	if once {
		q := queue.NewAsynqQueue(redisOpt)
		defer q.Close()
		id, err := q.EnqueueCleanup(ctx, cfg.Retention.Period)
		if err != nil {
			return err
		}
		log.Info("Cleanup enqueued", logger.String("taskId", id))
		return nil
	}

	docStore, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer docStore.Close()

	blobs, err := storage.NewStorage(ctx, cfg.Blob, log)
	if err != nil {
		return fmt.Errorf("init file archive: %w", err)
	}

	// The sweep never analyzes, so no analyzer is wired.
	docService := document.NewService(docStore, nil, blobs, log.Named("documents"), nil)

	cleanupWorker := worker.NewCleanupWorker(&worker.Config{
		Redis:       redisOpt,
		Concurrency: cfg.Worker.Concurrency,
	}, docService, log.Named("cleanup"))

	scheduler, err := queue.NewScheduler(redisOpt, cfg.Worker.CleanupCron, cfg.Retention.Period)
	if err != nil {
		return err
	}

	if err := cleanupWorker.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		cleanupWorker.Stop()
		return fmt.Errorf("start scheduler: %w", err)
	}
	log.Info("Worker started",
		logger.String("cron", cfg.Worker.CleanupCron),
		logger.Duration("retention", cfg.Retention.Period),
		logger.String("entryId", scheduler.EntryID()),
	)

	<-ctx.Done()

	log.Info("Shutting down worker...")
	scheduler.Shutdown()
	cleanupWorker.Stop()
	log.Info("Worker stopped")
	return nil
}
