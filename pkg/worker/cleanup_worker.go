package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/queue"
)

// Cleaner deletes documents uploaded before threshold and reports how many.
type Cleaner interface {
	CleanupBefore(ctx context.Context, threshold time.Time) (int, error)
}

// CleanupHandler processes documents:cleanup tasks.
type CleanupHandler struct {
	cleaner Cleaner
	logger  logger.Logger
	now     func() time.Time
}

func NewCleanupHandler(cleaner Cleaner, log logger.Logger) *CleanupHandler {
	return &CleanupHandler{cleaner: cleaner, logger: log, now: time.Now}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := queue.ParseCleanupPayload(t)
	if err != nil {
		h.logger.Error("Invalid cleanup task",
			logger.String("payload", string(t.Payload())),
			logger.Error(err),
		)
		// malformed payloads never succeed on retry
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	threshold := h.now().Add(-payload.Retention)
	h.logger.Info("Running document cleanup",
		logger.Duration("retention", payload.Retention),
		logger.Time("threshold", threshold),
	)

	removed, err := h.cleaner.CleanupBefore(ctx, threshold)
	if err != nil {
		h.logger.Error("Document cleanup failed", logger.Error(err))
		return err
	}

	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write([]byte(fmt.Sprintf(`{"removed":%d}`, removed))); err != nil {
			h.logger.Error("Failed to write task result", logger.Error(err))
		}
	}

	h.logger.Info("Document cleanup finished", logger.Int("removed", removed))
	return nil
}

// CleanupWorker serves the maintenance queue.
type CleanupWorker struct {
	BaseWorker
}

func NewCleanupWorker(cfg *Config, cleaner Cleaner, log logger.Logger) *CleanupWorker {
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{queue.QueueMaintenance: 1}
	}

	server := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n) * time.Minute
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(queue.TaskTypeDocumentsCleanup, NewCleanupHandler(cleaner, log))

	return &CleanupWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    mux,
			logger: log,
		},
	}
}
