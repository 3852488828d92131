package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/analysis"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/store"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/utils/validator"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage"
)

const defaultFailureMessage = "Failed to analyze document"

var (
	// ErrValidation wraps a *validator.ValidationError.
	ErrValidation = errors.New("invalid upload")
	// ErrFileUnavailable means the original file was not archived.
	ErrFileUnavailable = errors.New("original file not available")
)

// Upload is one received file.
type Upload struct {
	FileName string
	MIMEType string
	Size     int64
	Data     []byte
}

// AnalysisError reports a failed analysis. Document is the record as left
// in the store, with status error.
type AnalysisError struct {
	Document *models.Document
	Err      error
}

func (e *AnalysisError) Error() string {
	return e.Err.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

type DocumentService struct {
	store      store.DocumentStore
	analyzer   agent.Analyzer
	storage    storage.Storage
	validator  *validator.DocumentValidator
	normalizer *analysis.Normalizer
	logger     logger.Logger
	now        func() time.Time
}

var _ DocumentProcessor = (*DocumentService)(nil)

type ServiceConfig struct {
	MaxFileSize  int64
	AllowedTypes []string
	// Now and Normalizer default to the wall clock and a random-id normalizer.
	Now        func() time.Time
	Normalizer *analysis.Normalizer
}

// NewService wires the workflow. blobs may be nil to disable archiving;
// analyzer may be nil for processes that only delete or sweep.
func NewService(
	st store.DocumentStore,
	analyzer agent.Analyzer,
	blobs storage.Storage,
	log logger.Logger,
	cfg *ServiceConfig,
) *DocumentService {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}

	vcfg := validator.DefaultConfig()
	if cfg.MaxFileSize > 0 {
		vcfg.MaxFileSize = cfg.MaxFileSize
	}
	if len(cfg.AllowedTypes) > 0 {
		vcfg.AllowedTypes = cfg.AllowedTypes
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = analysis.NewNormalizer(analysis.WithClock(now))
	}

	return &DocumentService{
		store:      st,
		analyzer:   analyzer,
		storage:    blobs,
		validator:  validator.NewDocumentValidator(log, vcfg),
		normalizer: normalizer,
		logger:     log,
		now:        now,
	}
}

func (s *DocumentService) ProcessUpload(ctx context.Context, up Upload) (_ *models.Document, err error) {
	s.logger.Info("Starting upload processing",
		logger.String("filename", up.FileName),
		logger.String("mimeType", up.MIMEType),
		logger.Int64("size", up.Size),
	)

	if err := s.validator.Validate(up.FileName, up.MIMEType, up.Size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	doc, err := s.store.Create(ctx, models.NewDocument{
		FileName:   up.FileName,
		FileType:   models.FileTypeFromMIME(up.MIMEType),
		MIMEType:   up.MIMEType,
		FileSize:   up.Size,
		UploadedAt: s.now(),
		Status:     models.StatusAnalyzing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	log := s.logger.With(logger.String("documentId", doc.ID))
	// The record must reach a terminal state even if the caller goes away
	// or a content processor panics.
	finishCtx := context.WithoutCancel(ctx)
	defer func() {
		if r := recover(); r != nil {
			err = s.fail(finishCtx, log, doc, fmt.Errorf("analysis panicked: %v", r))
		}
	}()

	s.archive(ctx, log, doc, up.Data)

	raw, err := s.analyzer.Analyze(ctx, agent.Request{
		FileName: up.FileName,
		MIMEType: up.MIMEType,
		Data:     up.Data,
	})
	var parsed analysis.RawAnalysis
	if err == nil {
		parsed, err = analysis.DecodeRaw(raw)
	}
	if err != nil {
		return nil, s.fail(finishCtx, log, doc, err)
	}

	result := s.normalizer.Normalize(parsed, up.FileName, up.MIMEType)
	for _, issue := range analysis.Audit(result) {
		log.Warn("Analysis section uses a fallback template",
			logger.String("sectionId", issue.SectionID),
			logger.String("kind", string(issue.Kind)),
			logger.String("detail", issue.Message),
		)
	}

	updated, err := s.store.Update(finishCtx, doc.ID, models.DocumentPatch{
		Status:   models.Ptr(models.StatusComplete),
		Analysis: &result,
	})
	if err != nil {
		return nil, s.fail(finishCtx, log, doc, fmt.Errorf("failed to save analysis: %w", err))
	}

	log.Info("Document analysis completed",
		logger.Int("sections", len(result.Sections)),
		logger.Int("keyTakeaways", len(result.KeyTakeaways)),
	)
	return updated, nil
}

func (s *DocumentService) fail(ctx context.Context, log logger.Logger, doc *models.Document, cause error) error {
	log.Error("Document analysis failed", logger.Error(cause))

	msg := cause.Error()
	if msg == "" {
		msg = defaultFailureMessage
	}

	updated, err := s.store.Update(ctx, doc.ID, models.DocumentPatch{
		Status:       models.Ptr(models.StatusError),
		ErrorMessage: &msg,
	})
	if err != nil {
		log.Error("Failed to record analysis failure", logger.Error(err))
		updated = doc.Clone()
		updated.Status = models.StatusError
		updated.ErrorMessage = msg
	}
	return &AnalysisError{Document: updated, Err: cause}
}

// archive stores the original bytes. Failures are logged only.
func (s *DocumentService) archive(ctx context.Context, log logger.Logger, doc *models.Document, data []byte) {
	if s.storage == nil {
		return
	}
	key := storage.DocumentKey(doc.ID, doc.FileName)
	if _, err := s.storage.Store(ctx, bytes.NewReader(data), key); err != nil {
		log.Warn("Failed to archive original file", logger.String("key", key), logger.Error(err))
	}
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list documents", logger.Error(err))
		return nil, err
	}
	return docs, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.store.Get(ctx, id)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) (bool, error) {
	var fileName string
	if s.storage != nil {
		if doc, err := s.store.Get(ctx, id); err == nil {
			fileName = doc.FileName
		}
	}

	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete document", logger.String("documentId", id), logger.Error(err))
		return false, err
	}
	if !existed {
		return false, nil
	}

	if s.storage != nil && fileName != "" {
		key := storage.DocumentKey(id, fileName)
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete archived file", logger.String("key", key), logger.Error(err))
		}
	}

	s.logger.Info("Document deleted", logger.String("documentId", id))
	return true, nil
}

func (s *DocumentService) OpenFile(ctx context.Context, id string) (io.ReadCloser, *models.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.storage == nil {
		return nil, doc, ErrFileUnavailable
	}

	rc, err := s.storage.Get(ctx, storage.DocumentKey(doc.ID, doc.FileName))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, doc, ErrFileUnavailable
	}
	if err != nil {
		return nil, doc, err
	}
	return rc, doc, nil
}

func (s *DocumentService) CleanupBefore(ctx context.Context, threshold time.Time) (int, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	removed := 0
	for _, doc := range docs {
		if !doc.UploadedAt.Before(threshold) {
			continue
		}
		existed, err := s.DeleteDocument(ctx, doc.ID)
		if err != nil {
			return removed, err
		}
		if existed {
			removed++
		}
	}

	if s.storage != nil {
		if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
			s.logger.Warn("Failed to clean up archived files", logger.Error(err))
		}
	}

	s.logger.Info("Completed documents cleanup",
		logger.Time("threshold", threshold),
		logger.Int("removed", removed),
	)
	return removed, nil
}
