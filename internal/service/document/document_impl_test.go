package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/analysis"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/store"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/utils/validator"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage/memory"
)

type fakeAnalyzer struct {
	response string
	err      error
	panicVal any
	calls    []agent.Request
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req agent.Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.panicVal != nil {
		panic(f.panicVal)
	}
	return f.response, f.err
}

// flakyStore fails the first failUpdates calls to Update.
type flakyStore struct {
	*store.MemoryStore
	failUpdates int
}

func (s *flakyStore) Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.Document, error) {
	if s.failUpdates > 0 {
		s.failUpdates--
		return nil, errors.New("disk full")
	}
	return s.MemoryStore.Update(ctx, id, patch)
}

const photosynthesis = `{
  "title": "Photosynthesis",
  "overview": "How plants make food.",
  "sections": [
    {"id": "s1", "type": "keyPoints", "title": "Inputs", "content": "", "items": ["Light", "Water", "CO2"]},
    {"type": "summary", "title": "Wrap-up", "content": "Plants convert light."}
  ],
  "keyTakeaways": ["Chlorophyll absorbs light"]
}`

type fixture struct {
	svc      *DocumentService
	store    *store.MemoryStore
	blobs    *memory.Storage
	analyzer *fakeAnalyzer
	log      *logger.TestLogger
	now      time.Time
}

func newFixture(t *testing.T, withBlobs bool) *fixture {
	t.Helper()

	f := &fixture{
		store:    store.NewMemoryStore(),
		analyzer: &fakeAnalyzer{response: photosynthesis},
		log:      logger.NewTestLogger(),
		now:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	var blobs storage.Storage
	if withBlobs {
		f.blobs = memory.New().WithClock(clock)
		blobs = f.blobs
	}

	f.svc = NewService(f.store, f.analyzer, blobs, f.log, &ServiceConfig{
		Now:        clock,
		Normalizer: analysis.NewNormalizer(analysis.WithClock(clock), analysis.WithIDGenerator(func() string { return "analysis-1" })),
	})
	return f
}

func pdfUpload(name string) Upload {
	data := []byte("%PDF-1.4 fake")
	return Upload{FileName: name, MIMEType: "application/pdf", Size: int64(len(data)), Data: data}
}

func TestProcessUploadSuccess(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	doc, err := f.svc.ProcessUpload(ctx, pdfUpload("bio.pdf"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusComplete, doc.Status)
	assert.Equal(t, models.PDF, doc.FileType)
	assert.Equal(t, f.now, doc.UploadedAt)
	require.NotNil(t, doc.Analysis)
	assert.Equal(t, "Photosynthesis", doc.Analysis.Title)
	require.Len(t, doc.Analysis.Sections, 2)
	assert.Equal(t, []string{"Light", "Water", "CO2"}, doc.Analysis.Sections[0].Items)
	assert.Equal(t, "section-1", doc.Analysis.Sections[1].ID)
	assert.Empty(t, doc.ErrorMessage)

	stored, err := f.store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, stored)

	require.Len(t, f.analyzer.calls, 1)
	assert.Equal(t, "bio.pdf", f.analyzer.calls[0].FileName)
}

func TestProcessUploadAnalyzerFailure(t *testing.T) {
	f := newFixture(t, false)
	f.analyzer.err = errors.New("quota exceeded")
	ctx := context.Background()

	doc, err := f.svc.ProcessUpload(ctx, pdfUpload("bio.pdf"))
	require.Error(t, err)
	assert.Nil(t, doc)

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, models.StatusError, aerr.Document.Status)
	assert.Equal(t, "quota exceeded", aerr.Document.ErrorMessage)
	assert.Nil(t, aerr.Document.Analysis)

	docs, err := f.svc.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.StatusError, docs[0].Status)
	assert.Contains(t, f.log.Messages("ERROR"), "Document analysis failed")
}

func TestProcessUploadMalformedResponse(t *testing.T) {
	f := newFixture(t, false)
	f.analyzer.response = "Sorry, I cannot help with that."

	_, err := f.svc.ProcessUpload(context.Background(), pdfUpload("bio.pdf"))
	require.ErrorIs(t, err, analysis.ErrMalformedResponse)

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, models.StatusError, aerr.Document.Status)
	assert.NotEmpty(t, aerr.Document.ErrorMessage)
}

func TestProcessUploadEmptyErrorMessage(t *testing.T) {
	f := newFixture(t, false)
	f.analyzer.err = errors.New("")

	_, err := f.svc.ProcessUpload(context.Background(), pdfUpload("bio.pdf"))
	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, defaultFailureMessage, aerr.Document.ErrorMessage)
}

func TestProcessUploadRejectsBeforeStoreMutation(t *testing.T) {
	tests := []struct {
		name   string
		upload Upload
		code   string
	}{
		{
			name:   "text file",
			upload: Upload{FileName: "notes.txt", MIMEType: "text/plain", Size: 10, Data: []byte("plain text")},
			code:   validator.CodeInvalidFileType,
		},
		{
			name:   "too large",
			upload: Upload{FileName: "big.pdf", MIMEType: "application/pdf", Size: 25 * 1024 * 1024},
			code:   validator.CodeFileTooLarge,
		},
		{
			name:   "empty",
			upload: Upload{FileName: "empty.png", MIMEType: "image/png"},
			code:   validator.CodeEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			ctx := context.Background()

			_, err := f.svc.ProcessUpload(ctx, tt.upload)
			require.ErrorIs(t, err, ErrValidation)

			verr, ok := validator.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, verr.Code)

			docs, err := f.store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, docs)
			assert.Empty(t, f.analyzer.calls)
		})
	}
}

func TestProcessUploadWarnsOnFallbackSections(t *testing.T) {
	f := newFixture(t, false)
	f.analyzer.response = `{"title":"T","sections":[{"type":"mystery","title":"?","content":"x"}]}`

	doc, err := f.svc.ProcessUpload(context.Background(), pdfUpload("t.pdf"))
	require.NoError(t, err)
	assert.Equal(t, models.SectionType("mystery"), doc.Analysis.Sections[0].Type)
	assert.Contains(t, f.log.Messages("WARN"), "Analysis section uses a fallback template")
}

func TestArchiveAndOpenFile(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	doc, err := f.svc.ProcessUpload(ctx, pdfUpload("bio.pdf"))
	require.NoError(t, err)

	rc, got, err := f.svc.OpenFile(ctx, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
	assert.Equal(t, doc.ID, got.ID)

	existed, err := f.svc.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Empty(t, f.blobs.Keys())
}

func TestOpenFileWithoutArchive(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	doc, err := f.svc.ProcessUpload(ctx, pdfUpload("bio.pdf"))
	require.NoError(t, err)

	_, _, err = f.svc.OpenFile(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrFileUnavailable)

	_, _, err = f.svc.OpenFile(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUnknownDocument(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	existed, err := f.svc.DeleteDocument(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, existed)

	docs, err := f.svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGetDocumentNotFound(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCleanupBefore(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	start := f.now

	var ids []string
	for i := 0; i < 3; i++ {
		f.now = start.Add(time.Duration(i) * time.Hour)
		doc, err := f.svc.ProcessUpload(ctx, pdfUpload(fmt.Sprintf("doc-%d.pdf", i)))
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}

	removed, err := f.svc.CleanupBefore(ctx, start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	docs, err := f.svc.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, ids[2], docs[0].ID)
	assert.Len(t, f.blobs.Keys(), 1)
}

func TestProcessUploadAnalyzerPanic(t *testing.T) {
	f := newFixture(t, false)
	f.analyzer.panicVal = "loading {3 0}: found {0 0}"
	ctx := context.Background()

	var (
		doc *models.Document
		err error
	)
	require.NotPanics(t, func() {
		doc, err = f.svc.ProcessUpload(ctx, pdfUpload("scan.pdf"))
	})
	assert.Nil(t, doc)

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, models.StatusError, aerr.Document.Status)
	assert.Contains(t, aerr.Document.ErrorMessage, "analysis panicked")

	stored, err := f.store.Get(ctx, aerr.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "loading {3 0}")
}

func TestProcessUploadSaveFailure(t *testing.T) {
	tests := []struct {
		name        string
		failUpdates int
		wantStored  models.DocumentStatus
	}{
		{name: "failure recorded", failUpdates: 1, wantStored: models.StatusError},
		{name: "failure not persisted", failUpdates: 2, wantStored: models.StatusAnalyzing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &flakyStore{MemoryStore: store.NewMemoryStore(), failUpdates: tt.failUpdates}
			svc := NewService(st, &fakeAnalyzer{response: photosynthesis}, nil, logger.NewNop(), nil)
			ctx := context.Background()

			doc, err := svc.ProcessUpload(ctx, pdfUpload("bio.pdf"))
			assert.Nil(t, doc)

			var aerr *AnalysisError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, models.StatusError, aerr.Document.Status)
			assert.Contains(t, aerr.Document.ErrorMessage, "failed to save analysis")
			assert.Nil(t, aerr.Document.Analysis)

			stored, err := st.Get(ctx, aerr.Document.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStored, stored.Status)
		})
	}
}
