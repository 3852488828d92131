package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrRevisionConflict is returned when a patch carries a stale ExpectedRevision.
	ErrRevisionConflict = errors.New("document revision conflict")
)

// DocumentStore owns Document records keyed by generated id.
type DocumentStore interface {
	Create(ctx context.Context, doc models.NewDocument) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.Document, error)
	Delete(ctx context.Context, id string) (bool, error)
	// List returns every document, newest UploadedAt first.
	List(ctx context.Context) ([]*models.Document, error)
	Close() error
}

// IDGenerator produces document ids.
type IDGenerator func() (string, error)

// UUIDGenerator is the default IDGenerator.
func UUIDGenerator() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate document id: %w", err)
	}
	return id.String(), nil
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (DocumentStore, error) {
	switch cfg.Backend {
	case "", "memory":
		log.Info("Using in-memory document store")
		return NewMemoryStore(), nil
	case "redis":
		log.Info("Using redis document store", logger.String("addr", cfg.Redis.Addr))
		return NewRedisStore(ctx, cfg.Redis)
	case "sqlite":
		log.Info("Using sqlite document store", logger.String("path", cfg.SQLite.Path))
		return OpenSQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

func checkRevision(doc *models.Document, patch models.DocumentPatch) error {
	if patch.ExpectedRevision != nil && *patch.ExpectedRevision != doc.Revision {
		return fmt.Errorf("%w: expected %d, have %d", ErrRevisionConflict, *patch.ExpectedRevision, doc.Revision)
	}
	return nil
}

func sortNewestFirst(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
}
