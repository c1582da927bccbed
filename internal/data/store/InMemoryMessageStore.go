package store

import (
	"context"
	"sync"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
)

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]commonModels.ConversationTurn
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]commonModels.ConversationTurn),
	}
}

func (store *InMemoryMessageStore) AppendTurn(ctx context.Context, sessionId string, turn commonModels.ConversationTurn) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[sessionId] = append(store.chatMap[sessionId], turn)
	inMemLogger.Debug("Saved turn to chat message store", "sessionId", sessionId)
	return nil
}

// GetHistory returns a copy, oldest turn first.
func (store *InMemoryMessageStore) GetHistory(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	turns := store.chatMap[sessionId]
	out := make([]commonModels.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (store *InMemoryMessageStore) ClearHistory(ctx context.Context, sessionId string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, sessionId)
	return nil
}
