package tokens

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := FileTokenStore{Path: path}
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, store.SaveToken(Token{Access: "oauth:abc", Refresh: "r", Login: "ronni", ExpiresAt: expires}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, Token{Access: "abc", Refresh: "r", Login: "ronni", ExpiresAt: expires}, *got)
	assert.Equal(t, "oauth:abc", got.Password())
}

func TestFileTokenStoreMissingFile(t *testing.T) {
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	_, err := store.LoadToken()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type memStore struct {
	token *Token
	saved []Token
}

func (s *memStore) LoadToken() (*Token, error) {
	if s.token == nil {
		return nil, nil
	}
	tok := *s.token
	return &tok, nil
}

func (s *memStore) SaveToken(t Token) error {
	s.saved = append(s.saved, t)
	s.token = &t
	return nil
}

func TestManagerReturnsFreshToken(t *testing.T) {
	store := &memStore{token: &Token{Access: "a", Refresh: "r", ExpiresAt: time.Now().Add(time.Hour)}}
	calls := 0
	m := NewManager(store, func(context.Context, string) (Token, error) {
		calls++
		return Token{}, nil
	})

	tok, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Access)
	assert.Zero(t, calls)
	assert.Empty(t, store.saved)
}

func TestManagerRefreshesExpiringToken(t *testing.T) {
	store := &memStore{token: &Token{Access: "a", Refresh: "r", Login: "ronni", ExpiresAt: time.Now().Add(time.Minute)}}
	m := NewManager(store, func(_ context.Context, refresh string) (Token, error) {
		assert.Equal(t, "r", refresh)
		return Token{Access: "b", ExpiresAt: time.Now().Add(4 * time.Hour)}, nil
	})

	tok, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", tok.Access)
	assert.Equal(t, "r", tok.Refresh)
	assert.Equal(t, "ronni", tok.Login)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "b", store.saved[0].Access)
}

func TestManagerErrors(t *testing.T) {
	m := NewManager(&memStore{}, nil)
	_, err := m.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	m = NewManager(&memStore{token: &Token{Access: "a", ExpiresAt: time.Now()}}, nil)
	_, err = m.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotRefreshable)

	boom := errors.New("boom")
	m = NewManager(&memStore{token: &Token{Access: "a", Refresh: "r"}}, func(context.Context, string) (Token, error) {
		return Token{}, boom
	})
	_, err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
