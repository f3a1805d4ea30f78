package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	bookingmodalerrors "opacbookings/internal/bookingmodal/errors"
	"opacbookings/pkg/model"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionRepository keeps sessions in process. Entries are stored
// encoded so callers never share a session's slices.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *memorySessionRepository) Create(_ context.Context, session *model.BookingSession) error {
	touch(session)
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpired()
	r.sessions[session.ID] = memoryEntry{data: data, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *memorySessionRepository) FindByID(_ context.Context, id string) (*model.BookingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id)
}

func (r *memorySessionRepository) Update(_ context.Context, id string, fn UpdateFunc) (*model.BookingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}

	touch(session)
	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	r.sessions[id] = memoryEntry{data: data, expiresAt: r.now().Add(r.ttl)}
	return session, nil
}

func (r *memorySessionRepository) Ping(context.Context) error {
	return nil
}

// load must be called with mu held.
func (r *memorySessionRepository) load(id string) (*model.BookingSession, error) {
	entry, ok := r.sessions[id]
	if !ok || r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return nil, bookingmodalerrors.ErrSessionNotFound
	}

	var session model.BookingSession
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *memorySessionRepository) evictExpired() {
	now := r.now()
	for id, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			delete(r.sessions, id)
		}
	}
}
