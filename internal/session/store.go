package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type storeEntry struct {
	session  *Session
	lastUsed uint64
}

// Store keeps at most capacity sessions, evicting the least recently used.
type Store struct {
	lock     sync.Mutex
	sessions map[uuid.UUID]*storeEntry
	capacity int
	clock    uint64
	deps     Dependencies
}

func NewStore(capacity int, deps Dependencies) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		sessions: make(map[uuid.UUID]*storeEntry, capacity),
		capacity: capacity,
		deps:     deps,
	}
}

func (store *Store) Create(owner string) *Session {
	store.lock.Lock()
	defer store.lock.Unlock()

	if len(store.sessions) >= store.capacity {
		oldestId := uuid.Nil
		var oldest uint64
		for id, entry := range store.sessions {
			if oldestId == uuid.Nil || entry.lastUsed < oldest {
				oldestId = id
				oldest = entry.lastUsed
			}
		}
		slog.Info("evicting least recently used session", "session_id", oldestId, "owner", store.sessions[oldestId].session.Owner)
		delete(store.sessions, oldestId)
	}

	session := New(owner, store.deps)
	store.clock++
	store.sessions[session.Id] = &storeEntry{session: session, lastUsed: store.clock}
	return session
}

// Get returns the session only to its owner; other users get ErrNotFound.
func (store *Store) Get(id uuid.UUID, owner string) (*Session, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	entry, ok := store.sessions[id]
	if !ok || entry.session.Owner != owner {
		return nil, ErrNotFound
	}
	store.clock++
	entry.lastUsed = store.clock
	return entry.session, nil
}

func (store *Store) Delete(id uuid.UUID, owner string) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	entry, ok := store.sessions[id]
	if !ok || entry.session.Owner != owner {
		return ErrNotFound
	}
	delete(store.sessions, id)
	return nil
}

func (store *Store) Len() int {
	store.lock.Lock()
	defer store.lock.Unlock()
	return len(store.sessions)
}
