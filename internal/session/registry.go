package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
)

var logger = logger_i.NewLogger("Session Registry")

// Session owns exactly one document and, in rag mode, its index.
type Session struct {
	Id        string
	Document  commonModels.Document
	Index     vectorDB.Index
	CreatedAt time.Time
}

// Persistence stores documents and their index records so a session can be
// resumed after a restart without re-embedding.
type Persistence interface {
	SaveDocument(ctx context.Context, sessionId string, doc commonModels.Document, records []commonModels.IndexRecord) error
	LoadDocument(ctx context.Context, sessionId string) (commonModels.Document, []commonModels.IndexRecord, bool, error)
	DeleteDocument(ctx context.Context, sessionId string) error
}

type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	factory     vectorDB.Factory
	persistence Persistence
}

// NewRegistry keeps sessions in memory. persistence may be nil.
func NewRegistry(factory vectorDB.Factory, persistence Persistence) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		factory:     factory,
		persistence: persistence,
	}
}

func (r *Registry) Add(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	if r.persistence != nil {
		var records []commonModels.IndexRecord
		if snap, ok := s.Index.(vectorDB.Snapshotter); ok {
			records = snap.Records()
		}
		if err := r.persistence.SaveDocument(ctx, s.Id, s.Document, records); err != nil {
			logger.FromContext(ctx).Error("could not persist session document", "sessionId", s.Id, "error", err)
			return fmt.Errorf("persisting session %s: %w", s.Id, err)
		}
	}

	r.mu.Lock()
	r.sessions[s.Id] = s
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(count)
	return nil
}

// Get returns the session, resuming it from persistence when it is not loaded.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if r.persistence == nil {
		return nil, docErrors.ErrSessionNotFound
	}

	restored, err := r.restore(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = restored
	metrics.SetActiveSessions(len(r.sessions))
	return restored, nil
}

func (r *Registry) restore(ctx context.Context, id string) (*Session, error) {
	log := logger.FromContext(ctx).With("sessionId", id)

	doc, records, found, err := r.persistence.LoadDocument(ctx, id)
	if err != nil {
		log.Error("could not load persisted session", "error", err)
		return nil, err
	}
	if !found {
		return nil, docErrors.ErrSessionNotFound
	}

	s := &Session{Id: id, Document: doc, CreatedAt: doc.LastIngestTimestamp}
	if doc.Mode != commonModels.ModeRag {
		log.Debug("resumed full mode session")
		return s, nil
	}

	index := r.factory(doc.Id)
	if restorer, ok := index.(vectorDB.Restorer); ok {
		if len(records) == 0 && doc.ChunkCount > 0 {
			return nil, &docErrors.EmptyIndexError{DocumentId: doc.Id}
		}
		if err := restorer.Restore(records); err != nil {
			return nil, fmt.Errorf("restoring index for session %s: %w", id, err)
		}
	}
	s.Index = index
	log.Info("resumed rag mode session", "chunks", len(records))
	return s, nil
}

func (r *Registry) Has(ctx context.Context, id string) bool {
	_, err := r.Get(ctx, id)
	return err == nil
}

// Remove discards the session: it is forgotten, its external index is dropped
// and its persisted document deleted. A session that is not loaded is resumed
// first so its index can be found.
func (r *Registry) Remove(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()
	metrics.SetActiveSessions(count)

	var dropErr error
	if dropper, ok := s.Index.(vectorDB.Dropper); ok {
		if dropErr = dropper.Drop(ctx); dropErr != nil {
			logger.FromContext(ctx).Error("could not drop session index", "sessionId", id, "error", dropErr)
			dropErr = fmt.Errorf("dropping index of session %s: %w", id, dropErr)
		}
	}
	if r.persistence != nil {
		if err := r.persistence.DeleteDocument(ctx, id); err != nil {
			return errors.Join(dropErr, fmt.Errorf("deleting session %s: %w", id, err))
		}
	}
	return dropErr
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
