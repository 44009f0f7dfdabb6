package server

import (
	"context"
	"sort"
	"sync"

	"sgu-cli/internal/model"
)

// Memory keeps users in a map. Ids start at 1 and are never reused.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]model.Fields
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{nextID: 1, users: map[int64]model.Fields{}}
}

func (m *Memory) List(context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.users[id].User(toModelID(id)))
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id int64) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return f.User(toModelID(id)), nil
}

func (m *Memory) Create(_ context.Context, f model.Fields) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.users[id] = f
	return f.User(toModelID(id)), nil
}

func (m *Memory) Update(_ context.Context, id int64, f model.Fields) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return model.User{}, ErrNotFound
	}
	m.users[id] = f
	return f.User(toModelID(id)), nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) Close() error { return nil }
