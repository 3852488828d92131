package store

import (
	"context"
	"sync"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

// MemoryStore keeps documents in a map. Contents are lost on restart.
// Concurrent updates to the same id are last-write-wins unless the patch
// carries ExpectedRevision.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]*models.Document
	newID IDGenerator
}

var _ DocumentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithIDs(UUIDGenerator)
}

// NewMemoryStoreWithIDs lets tests control id generation.
func NewMemoryStoreWithIDs(gen IDGenerator) *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]*models.Document),
		newID: gen,
	}
}

func (s *MemoryStore) Create(ctx context.Context, in models.NewDocument) (*models.Document, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	doc := in.Build(id)

	s.mu.Lock()
	s.docs[id] = doc
	s.mu.Unlock()

	return doc.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := checkRevision(existing, patch); err != nil {
		return nil, err
	}

	updated := existing.Clone()
	patch.Apply(updated)
	s.docs[id] = updated
	return updated.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return false, nil
	}
	delete(s.docs, id)
	return true, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	docs := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc.Clone())
	}
	s.mu.RUnlock()

	sortNewestFirst(docs)
	return docs, nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) Close() error {
	return nil
}
