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

const historyKeyPrefix = "history:"

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisMessageStore returns nil when redis is unreachable.
func GetRedisMessageStore(ctx context.Context, addr string, password string) *RedisMessageStore {
	s := redisStore.GetRedisStore(ctx, addr, password, config.RedisMessageStore)
	if s == nil {
		return nil
	}
	return NewRedisMessageStore(s)
}

func NewRedisMessageStore(s *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  s,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) AppendTurn(ctx context.Context, sessionId string, turn commonModels.ConversationTurn) error {
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	if err := s.store.ListAppend(ctx, historyKeyPrefix+sessionId, config.RedisMessageStoreTTL, data); err != nil {
		log.Error("error saving chat", "error", err)
		return err
	}
	log.Debug("Saved chat successfully")
	return nil
}

func (s *RedisMessageStore) GetHistory(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error) {
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)
	log.Debug("Getting message history")

	raw, err := s.store.ListGetAll(ctx, historyKeyPrefix+sessionId)
	if err != nil {
		log.Error("Error getting history", "error", err)
		return nil, err
	}

	turns := make([]commonModels.ConversationTurn, 0, len(raw))
	for i, entry := range raw {
		var turn commonModels.ConversationTurn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("decoding turn %d of session %s: %w", i, sessionId, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisMessageStore) ClearHistory(ctx context.Context, sessionId string) error {
	s.logger.FromContext(ctx).Debug("Clearing history", "sessionId", sessionId)
	return s.store.Del(ctx, historyKeyPrefix+sessionId)
}
