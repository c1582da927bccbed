package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/data/redisStore"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
)

const (
	documentKeyPrefix = "doc:"
	indexKeyPrefix    = "index:"
)

// RedisDocumentStore persists session documents and their index records.
// Records are kept as a JSON list in ordinal order.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisDocumentStore returns nil when redis is unreachable.
func GetRedisDocumentStore(ctx context.Context, addr string, password string) *RedisDocumentStore {
	s := redisStore.GetRedisStore(ctx, addr, password, config.RedisDocumentStore)
	if s == nil {
		return nil
	}
	return NewRedisDocumentStore(s)
}

func NewRedisDocumentStore(s *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  s,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, sessionId string, doc commonModels.Document, records []commonModels.IndexRecord) error {
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(records))
	for i, r := range records {
		encoded, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", r.Ordinal, err)
		}
		values[i] = encoded
	}

	if err := s.store.ListReplace(ctx, indexKeyPrefix+sessionId, config.RedisDocumentStoreTTL, values...); err != nil {
		log.Error("could not save index records", "error", err)
		return err
	}
	if err := s.store.Set(ctx, documentKeyPrefix+sessionId, data, config.RedisDocumentStoreTTL); err != nil {
		log.Error("could not save document", "error", err)
		return err
	}
	log.Debug("document saved", "records", len(records))
	return nil
}

func (s *RedisDocumentStore) LoadDocument(ctx context.Context, sessionId string) (commonModels.Document, []commonModels.IndexRecord, bool, error) {
	var doc commonModels.Document

	raw, err := s.store.Get(ctx, documentKeyPrefix+sessionId)
	if s.store.IsNil(err) {
		return doc, nil, false, nil
	} else if err != nil {
		return doc, nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return doc, nil, false, fmt.Errorf("decoding document of session %s: %w", sessionId, err)
	}

	entries, err := s.store.ListGetAll(ctx, indexKeyPrefix+sessionId)
	if err != nil {
		return doc, nil, false, err
	}
	records := make([]commonModels.IndexRecord, len(entries))
	for i, entry := range entries {
		if err := json.Unmarshal([]byte(entry), &records[i]); err != nil {
			return doc, nil, false, fmt.Errorf("decoding index record %d of session %s: %w", i, sessionId, err)
		}
	}
	return doc, records, true, nil
}

func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, sessionId string) error {
	return s.store.Del(ctx, documentKeyPrefix+sessionId, indexKeyPrefix+sessionId)
}
