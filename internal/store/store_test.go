package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
)

const redisAddrEnv = "STUDY_TEST_REDIS_ADDR"

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type storeFactory func(t *testing.T) DocumentStore

func backends(t *testing.T) map[string]storeFactory {
	t.Helper()
	factories := map[string]storeFactory{
		"memory": func(t *testing.T) DocumentStore {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) DocumentStore {
			s, err := OpenSQLite(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	if addr := os.Getenv(redisAddrEnv); addr != "" {
		factories["redis"] = func(t *testing.T) DocumentStore {
			client := redis.NewClient(&redis.Options{Addr: addr})
			prefix := fmt.Sprintf("study-test:%d:", time.Now().UnixNano())
			s := NewRedisStoreFromClient(client, prefix)
			t.Cleanup(func() {
				ctx := context.Background()
				keys, _ := client.Keys(ctx, prefix+"*").Result()
				if len(keys) > 0 {
					client.Del(ctx, keys...)
				}
				s.Close()
			})
			return s
		}
	}
	return factories
}

func newDoc(name string, at time.Time) models.NewDocument {
	return models.NewDocument{
		FileName:   name,
		FileType:   models.PDF,
		MIMEType:   "application/pdf",
		FileSize:   1024,
		UploadedAt: at,
		Status:     models.StatusAnalyzing,
	}
}

func TestDocumentStore(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, factory(t)) })
			t.Run("UpdateMerges", func(t *testing.T) { testUpdateMerges(t, factory(t)) })
			t.Run("UpdateUnknown", func(t *testing.T) { testUpdateUnknown(t, factory(t)) })
			t.Run("DeleteThenGet", func(t *testing.T) { testDeleteThenGet(t, factory(t)) })
			t.Run("DeleteUnknown", func(t *testing.T) { testDeleteUnknown(t, factory(t)) })
			t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, factory(t)) })
			t.Run("RevisionConflict", func(t *testing.T) { testRevisionConflict(t, factory(t)) })
			t.Run("ClearFields", func(t *testing.T) { testClearFields(t, factory(t)) })
		})
	}
}

func testRoundTrip(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	created, err := s.Create(ctx, newDoc("notes.pdf", base))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Revision)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "notes.pdf", got.FileName)
	assert.Equal(t, models.PDF, got.FileType)
	assert.Equal(t, "application/pdf", got.MIMEType)
	assert.Equal(t, int64(1024), got.FileSize)
	assert.True(t, base.Equal(got.UploadedAt))
	assert.Equal(t, models.StatusAnalyzing, got.Status)
	assert.Nil(t, got.Analysis)
}

func testUpdateMerges(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	created, err := s.Create(ctx, newDoc("notes.pdf", base))
	require.NoError(t, err)

	analysis := &models.DocumentAnalysis{
		ID:           "a-1",
		FileName:     "notes.pdf",
		FileType:     models.PDF,
		UploadedAt:   base,
		Title:        "Thermodynamics",
		Overview:     "Heat and work",
		Sections:     []models.AnalysisSection{{ID: "s1", Type: models.SectionKeyPoints, Title: "Laws", Items: []string{"first", "second"}}},
		KeyTakeaways: []string{"energy is conserved"},
	}

	updated, err := s.Update(ctx, created.ID, models.DocumentPatch{
		Status:   models.Ptr(models.StatusComplete),
		Analysis: analysis,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, updated.Status)
	assert.Equal(t, int64(2), updated.Revision)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, got.Status)
	assert.Equal(t, "notes.pdf", got.FileName, "untouched fields survive")
	assert.Equal(t, int64(1024), got.FileSize)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "Thermodynamics", got.Analysis.Title)
	require.Len(t, got.Analysis.Sections, 1)
	assert.Equal(t, []string{"first", "second"}, got.Analysis.Sections[0].Items)
}

func testUpdateUnknown(t *testing.T, s DocumentStore) {
	_, err := s.Update(context.Background(), "missing", models.DocumentPatch{
		Status: models.Ptr(models.StatusError),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func testDeleteThenGet(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	created, err := s.Create(ctx, newDoc("notes.pdf", base))
	require.NoError(t, err)

	existed, err := s.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testDeleteUnknown(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	_, err := s.Create(ctx, newDoc("a.pdf", base))
	require.NoError(t, err)

	existed, err := s.Delete(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, existed)

	docs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func testListNewestFirst(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	t1, t2, t3 := base, base.Add(time.Minute), base.Add(2*time.Minute)
	for _, in := range []models.NewDocument{
		newDoc("second.pdf", t2),
		newDoc("first.pdf", t1),
		newDoc("third.pdf", t3),
	} {
		_, err := s.Create(ctx, in)
		require.NoError(t, err)
	}

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "third.pdf", docs[0].FileName)
	assert.Equal(t, "second.pdf", docs[1].FileName)
	assert.Equal(t, "first.pdf", docs[2].FileName)
}

func testRevisionConflict(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	created, err := s.Create(ctx, newDoc("notes.pdf", base))
	require.NoError(t, err)

	_, err = s.Update(ctx, created.ID, models.DocumentPatch{
		FileName:         models.Ptr("renamed.pdf"),
		ExpectedRevision: models.Ptr(created.Revision),
	})
	require.NoError(t, err)

	_, err = s.Update(ctx, created.ID, models.DocumentPatch{
		FileName:         models.Ptr("stale.pdf"),
		ExpectedRevision: models.Ptr(created.Revision),
	})
	assert.ErrorIs(t, err, ErrRevisionConflict)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", got.FileName)
	assert.Equal(t, int64(2), got.Revision)
}

func testClearFields(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	in := newDoc("notes.pdf", base)
	in.Status = models.StatusError
	in.ErrorMessage = "boom"
	created, err := s.Create(ctx, in)
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, models.DocumentPatch{
		Status:            models.Ptr(models.StatusAnalyzing),
		ClearErrorMessage: true,
	})
	require.NoError(t, err)
	assert.Empty(t, got.ErrorMessage)
	assert.Equal(t, models.StatusAnalyzing, got.Status)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.Create(ctx, newDoc("notes.pdf", base))
	require.NoError(t, err)

	created.FileName = "mutated.pdf"

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", got.FileName)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreCustomIDs(t *testing.T) {
	n := 0
	s := NewMemoryStoreWithIDs(func() (string, error) {
		n++
		return fmt.Sprintf("doc-%d", n), nil
	})

	created, err := s.Create(context.Background(), newDoc("a.pdf", base))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", created.ID)
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	path := t.TempDir() + "/documents.db"

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = s1.Create(context.Background(), newDoc("a.pdf", base))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	docs, err := s2.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1, "data survives reopen")
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	s, err := New(ctx, config.StoreConfig{Backend: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, config.StoreConfig{Backend: "sqlite", SQLite: config.SQLiteConfig{Path: ":memory:"}}, log)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, config.StoreConfig{Backend: "etcd"}, log)
	assert.Error(t, err)
}
