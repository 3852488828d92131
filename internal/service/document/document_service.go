package document

import (
	"context"
	"io"
	"time"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

// DocumentProcessor is the upload-and-analyze workflow plus history access.
type DocumentProcessor interface {
	// ProcessUpload validates, records and analyzes one file. On analysis
	// failure it returns an *AnalysisError carrying the error-status record.
	ProcessUpload(ctx context.Context, upload Upload) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
	// OpenFile returns the archived original file.
	OpenFile(ctx context.Context, id string) (io.ReadCloser, *models.Document, error)
	// CleanupBefore deletes documents uploaded before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) (int, error)
}
