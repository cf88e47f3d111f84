package twitch

import (
	"context"
	"errors"
)

// ErrNotConnected возвращается при отправке в закрытый транспорт.
var ErrNotConnected = errors.New("twitch: transport is not connected")

// Transport абстрагирует сокет до TMI. Send принимает одну строку без CRLF.
//
// Уведомления о событиях транспорт доставляет в TransportHandler. Закрытие,
// начатое вызовом Close, не порождает OnClosed.
type Transport interface {
	Connect() error
	Send(line string) error
	Close() error
	Connected() bool
}

// TransportHandler получает уведомления транспорта. Session реализует его.
type TransportHandler interface {
	OnConnected(ctx context.Context)
	OnError(ctx context.Context, err error)
	OnClosed(ctx context.Context, code int, reason string)
	OnMessage(ctx context.Context, payload string)
}
