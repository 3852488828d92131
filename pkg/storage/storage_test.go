package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage/memory"
)

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "documents/abc/notes.pdf", DocumentKey("abc", "notes.pdf"))
	assert.Equal(t, "documents/abc/passwd", DocumentKey("abc", "../../etc/passwd"))
	assert.Equal(t, "documents/abc/file", DocumentKey("abc", ""))
}

func TestNewStorageSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := NewStorage(ctx, config.BlobConfig{Backend: "none"}, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewStorage(ctx, config.BlobConfig{Backend: "memory"}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, s)

	_, err = NewStorage(ctx, config.BlobConfig{Backend: "ftp"}, logger.NewNop())
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var s Storage = memory.New().WithClock(func() time.Time { return now })

	key, err := s.Store(ctx, strings.NewReader("hello"), "documents/1/a.pdf")
	require.NoError(t, err)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = s.Get(ctx, "documents/2/b.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.CleanupBefore(ctx, now.Add(time.Second)))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "missing"))
}
