package tokens

import (
	"context"
	"time"
)

// Token описывает пользовательский OAuth токен для входа в чат.
type Token struct {
	Access    string
	Refresh   string
	Login     string
	ExpiresAt time.Time
}

// Password возвращает токен в виде, который ожидает PASS.
func (t Token) Password() string {
	return "oauth:" + t.Access
}

// TokenStore описывает хранилище токена.
type TokenStore interface {
	LoadToken() (*Token, error)
	SaveToken(Token) error
}

// RefreshFunc обменивает refresh-токен на новый Token.
type RefreshFunc func(ctx context.Context, refreshToken string) (Token, error)
