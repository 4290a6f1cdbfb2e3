// Package storage provides room.Repository implementations: an in-process
// map, Redis and SQLite. All of them store the room as one JSON document and
// enforce the version check described on room.Repository.
package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/playperu/minigames/internal/room"
)

// Memory keeps serialized rooms in a map so callers never share a *room.Room.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	rooms map[string]memEntry
}

type memEntry struct {
	data      []byte
	version   int64
	expiresAt time.Time
}

// NewMemory returns an empty store. Records expire ttl after their last save;
// zero keeps them forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		rooms: make(map[string]memEntry),
	}
}

// lookup returns the live entry for id, dropping it if it expired.
func (m *Memory) lookup(id string) (memEntry, bool) {
	e, ok := m.rooms[id]
	if !ok {
		return memEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.rooms, id)
		return memEntry{}, false
	}
	return e, true
}

func (m *Memory) Load(_ context.Context, id string) (*room.Room, error) {
	m.mu.Lock()
	e, ok := m.lookup(id)
	m.mu.Unlock()
	if !ok {
		return nil, room.ErrNotFound
	}

	var r room.Room
	if err := json.Unmarshal(e.data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (m *Memory) Save(_ context.Context, r *room.Room) error {
	next := *r
	next.Version++
	data, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.lookup(r.RoomID)
	switch {
	case !ok && r.Version != 0:
		return room.ErrNotFound
	case ok && cur.version != r.Version:
		return room.ErrConflict
	}

	e := memEntry{data: data, version: next.Version}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.rooms[r.RoomID] = e
	r.Version = next.Version

	if !ok {
		m.sweep()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.rooms, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live rooms.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.rooms)
}

// sweep drops expired entries. Callers hold mu.
func (m *Memory) sweep() {
	for id := range m.rooms {
		m.lookup(id)
	}
}
