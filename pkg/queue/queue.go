package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
)

const (
	TaskTypeDocumentsCleanup = "documents:cleanup"

	// QueueMaintenance holds housekeeping tasks.
	QueueMaintenance = "maintenance"
)

// CleanupPayload asks the worker to delete documents older than Retention.
type CleanupPayload struct {
	Retention   time.Duration `json:"retention"`
	RequestedAt time.Time     `json:"requestedAt"`
}

// NewCleanupTask builds a cleanup task on the maintenance queue.
func NewCleanupTask(retention time.Duration, now time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupPayload{Retention: retention, RequestedAt: now})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return asynq.NewTask(TaskTypeDocumentsCleanup, payload,
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}

// ParseCleanupPayload decodes a task built by NewCleanupTask.
func ParseCleanupPayload(t *asynq.Task) (CleanupPayload, error) {
	var p CleanupPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if p.Retention <= 0 {
		return p, fmt.Errorf("invalid retention %s", p.Retention)
	}
	return p, nil
}

// RedisOpt converts the store's redis settings for asynq.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Queue enqueues maintenance work.
type Queue interface {
	EnqueueCleanup(ctx context.Context, retention time.Duration) (string, error)
	Close() error
}

type AsynqQueue struct {
	client *asynq.Client
}

func NewAsynqQueue(opt asynq.RedisClientOpt) *AsynqQueue {
	return &AsynqQueue{client: asynq.NewClient(opt)}
}

// EnqueueCleanup schedules an immediate sweep and returns the task id.
func (q *AsynqQueue) EnqueueCleanup(ctx context.Context, retention time.Duration) (string, error) {
	t, err := NewCleanupTask(retention, time.Now())
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	return info.ID, nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// Scheduler registers the periodic cleanup.
type Scheduler struct {
	scheduler *asynq.Scheduler
	entryID   string
}

// NewScheduler registers a cleanup task on the cron spec.
func NewScheduler(opt asynq.RedisClientOpt, cronSpec string, retention time.Duration) (*Scheduler, error) {
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	t, err := NewCleanupTask(retention, time.Time{})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cronSpec, t)
	if err != nil {
		return nil, fmt.Errorf("failed to register cleanup on %q: %w", cronSpec, err)
	}
	return &Scheduler{scheduler: scheduler, entryID: entryID}, nil
}

func (s *Scheduler) EntryID() string {
	return s.entryID
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
