package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/models"
)

const maxWatchRetries = 5

// RedisStore keeps each document as a JSON value and indexes ids in a
// sorted set scored by upload time.
type RedisStore struct {
	client *redis.Client
	prefix string
	newID  IDGenerator
}

var _ DocumentStore = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		newID:  UUIDGenerator,
	}
}

func (s *RedisStore) docKey(id string) string {
	return s.prefix + "doc:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "docs"
}

func score(doc *models.Document) float64 {
	return float64(doc.UploadedAt.UnixMilli())
}

func (s *RedisStore) Create(ctx context.Context, in models.NewDocument) (*models.Document, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	doc := in.Build(id)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(id), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: score(doc), Member: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Document, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return decodeDocument(data)
}

func (s *RedisStore) Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.Document, error) {
	key := s.docKey(id)
	var updated *models.Document

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}

		doc, err := decodeDocument(data)
		if err != nil {
			return err
		}
		if err := checkRevision(doc, patch); err != nil {
			return err
		}
		patch.Apply(doc)

		out, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: score(doc), Member: id})
			return nil
		})
		if err != nil {
			return err
		}
		updated = doc
		return nil
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("failed to update document %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.docKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return del.Val() > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*models.Document, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	docs := make([]*models.Document, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a document, removed concurrently
			continue
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sortNewestFirst(docs)
	return docs, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeDocument(data []byte) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}
