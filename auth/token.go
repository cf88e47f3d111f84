package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	twitchoauth "golang.org/x/oauth2/twitch"
)

// ErrInvalidToken: Twitch отклонил токен (401 от /oauth2/validate).
var ErrInvalidToken = errors.New("twitch oauth: invalid token")

var (
	validateURL = "https://id.twitch.tv/oauth2/validate"
	endpoint    = twitchoauth.Endpoint
)

// Validation описывает ответ /oauth2/validate.
type Validation struct {
	ClientID  string
	Login     string
	UserID    string
	Scopes    []string
	ExpiresIn time.Duration
}

// ValidateToken проверяет пользовательский токен и возвращает его владельца.
// Префикс "oauth:" допускается и отбрасывается.
func ValidateToken(ctx context.Context, client *http.Client, token string) (Validation, error) {
	if client == nil {
		client = http.DefaultClient
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "oauth:")
	if token == "" {
		return Validation{}, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return Validation{}, fmt.Errorf("twitch oauth: create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+token)

	resp, err := client.Do(req)
	if err != nil {
		return Validation{}, fmt.Errorf("twitch oauth: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Validation{}, ErrInvalidToken
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return Validation{}, fmt.Errorf("twitch oauth: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		ClientID  string   `json:"client_id"`
		Login     string   `json:"login"`
		UserID    string   `json:"user_id"`
		Scopes    []string `json:"scopes"`
		ExpiresIn int64    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Validation{}, fmt.Errorf("twitch oauth: decode response: %w", err)
	}

	return Validation{
		ClientID:  payload.ClientID,
		Login:     payload.Login,
		UserID:    payload.UserID,
		Scopes:    payload.Scopes,
		ExpiresIn: time.Duration(payload.ExpiresIn) * time.Second,
	}, nil
}

// RefreshToken обменивает refresh-токен на новую пару токенов.
func RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*oauth2.Token, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" || refreshToken == "" {
		return nil, errors.New("twitch oauth: missing client id, client secret or refresh token")
	}

	cfg := &oauth2.Config{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
		Endpoint:     endpoint,
	}
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("twitch oauth: refresh: %w", err)
	}
	return tok, nil
}
