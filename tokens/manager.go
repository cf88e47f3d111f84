package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNoToken        = errors.New("tokens: no token stored")
	ErrNotRefreshable = errors.New("tokens: token expires and cannot be refreshed")
)

const refreshMargin = 5 * time.Minute

// Manager выдаёт актуальный токен, обновляя его через refresh-токен,
// когда до истечения остаётся меньше refreshMargin.
type Manager struct {
	store   TokenStore
	refresh RefreshFunc
	now     func() time.Time
	mu      sync.Mutex
}

// NewManager создаёт менеджер. refresh может быть nil: тогда токен только читается.
func NewManager(store TokenStore, refresh RefreshFunc) *Manager {
	return &Manager{store: store, refresh: refresh, now: time.Now}
}

// Get возвращает токен, обновляя его при необходимости.
func (m *Manager) Get(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.load()
	if err != nil {
		return Token{}, err
	}
	if !token.ExpiresAt.Before(m.now().Add(refreshMargin)) {
		return *token, nil
	}
	return m.refreshLocked(ctx, token)
}

// Refresh обновляет токен независимо от срока действия.
func (m *Manager) Refresh(ctx context.Context) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.load()
	if err != nil {
		return Token{}, err
	}
	return m.refreshLocked(ctx, token)
}

func (m *Manager) load() (*Token, error) {
	token, err := m.store.LoadToken()
	if err != nil {
		return nil, err
	}
	if token == nil || token.Access == "" {
		return nil, ErrNoToken
	}
	return token, nil
}

func (m *Manager) refreshLocked(ctx context.Context, token *Token) (Token, error) {
	if m.refresh == nil || token.Refresh == "" {
		return Token{}, ErrNotRefreshable
	}
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	fresh, err := m.refresh(ctx, token.Refresh)
	if err != nil {
		return Token{}, fmt.Errorf("tokens: refresh: %w", err)
	}
	if fresh.Refresh == "" {
		fresh.Refresh = token.Refresh
	}
	if fresh.Login == "" {
		fresh.Login = token.Login
	}

	if err := m.store.SaveToken(fresh); err != nil {
		return Token{}, err
	}
	return fresh, nil
}
