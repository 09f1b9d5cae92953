// Package directory is the user directory backing the contacts list. It is
// not consulted on the signaling path.
package directory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dkeye/VoiceCall/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

type Directory interface {
	ListUsers(ctx context.Context) ([]domain.UserProfile, error)
	GetUser(ctx context.Context, id domain.UserID) (domain.UserProfile, error)
	PutUser(ctx context.Context, p domain.UserProfile) error
}

type Memory struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.UserProfile
}

func NewMemory(seed ...domain.UserProfile) *Memory {
	m := &Memory{users: make(map[domain.UserID]domain.UserProfile, len(seed))}
	for _, p := range seed {
		m.users[p.ID] = p
	}
	return m
}

func (m *Memory) ListUsers(context.Context) ([]domain.UserProfile, error) {
	m.mu.RLock()
	out := make([]domain.UserProfile, 0, len(m.users))
	for _, p := range m.users {
		out = append(out, p)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetUser(_ context.Context, id domain.UserID) (domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.users[id]
	if !ok {
		return domain.UserProfile{}, ErrUserNotFound
	}
	return p, nil
}

func (m *Memory) PutUser(_ context.Context, p domain.UserProfile) error {
	if p.ID == "" {
		return domain.ErrUserIDEmpty
	}
	m.mu.Lock()
	m.users[p.ID] = p
	m.mu.Unlock()
	return nil
}
