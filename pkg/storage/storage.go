package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage/memory"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage/minio"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage/s3"
)

// StorageType names a blob backend.
type StorageType string

const (
	StorageTypeNone   StorageType = "none"
	StorageTypeMemory StorageType = "memory"
	StorageTypeS3     StorageType = "s3"
	StorageTypeMinio  StorageType = "minio"
)

// ErrNotFound is returned by Get for a missing key. Backends wrap fs.ErrNotExist.
var ErrNotFound = fs.ErrNotExist

// Storage archives original uploads.
type Storage interface {
	// Store writes reader under key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens the object stored under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage builds the backend selected by cfg.Backend. It returns nil
// without error when archiving is disabled.
func NewStorage(ctx context.Context, cfg config.BlobConfig, log logger.Logger) (Storage, error) {
	switch StorageType(cfg.Backend) {
	case "", StorageTypeNone:
		log.Info("Original file archive disabled")
		return nil, nil
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeS3:
		return s3.NewS3Storage(ctx, cfg.S3, log)
	case StorageTypeMinio:
		return minio.NewMinioStorage(ctx, cfg.Minio, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Backend)
	}
}

// DocumentKey is the archive key of a document's original file.
func DocumentKey(documentID, fileName string) string {
	name := path.Base("/" + fileName)
	if name == "/" || name == "." {
		name = "file"
	}
	return path.Join("documents", documentID, name)
}
