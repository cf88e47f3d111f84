package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTokenFile = ".secrets/twitch_chat_token.json"

// FileTokenStore сохраняет токен в JSON файле с правами 0600.
type FileTokenStore struct {
	Path string
}

type fileToken struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh,omitempty"`
	Login     string `json:"login,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

func (store FileTokenStore) tokenPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return DefaultTokenFile
	}
	return store.Path
}

// LoadToken читает токен из файла. Отсутствие файла оборачивает os.ErrNotExist.
func (store FileTokenStore) LoadToken() (*Token, error) {
	data, err := os.ReadFile(store.tokenPath())
	if err != nil {
		return nil, fmt.Errorf("load token: read file: %w", err)
	}

	var payload fileToken
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("load token: decode json: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("load token: parse expires_at: %w", err)
	}

	return &Token{
		Access:    strings.TrimPrefix(payload.Access, "oauth:"),
		Refresh:   payload.Refresh,
		Login:     payload.Login,
		ExpiresAt: expiresAt,
	}, nil
}

func (store FileTokenStore) SaveToken(token Token) error {
	path := store.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("save token: create dir: %w", err)
	}

	data, err := json.Marshal(fileToken{
		Access:    strings.TrimPrefix(token.Access, "oauth:"),
		Refresh:   token.Refresh,
		Login:     token.Login,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("save token: encode json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save token: write file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("save token: chmod file: %w", err)
	}

	return nil
}
