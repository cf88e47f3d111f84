package twitch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// DefaultServerURL задаёт WebSocket-эндпоинт TMI.
const DefaultServerURL = "wss://irc-ws.chat.twitch.tv:443"

const (
	writeTimeout = 10 * time.Second
	readLimit    = 1 << 20
)

type TransportEventKind uint8

const (
	TransportConnected TransportEventKind = iota + 1
	TransportFailed
	TransportClosed
	TransportMessage
)

// TransportEvent: уведомление WSTransport, доставляемое через канал Events.
type TransportEvent struct {
	Kind    TransportEventKind
	Err     error
	Code    int
	Reason  string
	Payload string

	gen uint64
}

// WSTransport реализует Transport поверх coder/websocket. Подключение идёт в фоне,
// повторные попытки подключения откладываются по экспоненте.
type WSTransport struct {
	url    string
	log    zerolog.Logger
	events chan TransportEvent

	mu      sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	backoff *backoff.ExponentialBackOff
	dialed  bool // была ли хотя бы одна попытка с момента последнего успеха

	gen       atomic.Uint64
	connected atomic.Bool
}

// NewWSTransport создаёт транспорт. maxInterval ограничивает паузу между
// попытками подключения; 0 оставляет значение по умолчанию backoff.
func NewWSTransport(url string, maxInterval time.Duration, log zerolog.Logger) *WSTransport {
	if url == "" {
		url = DefaultServerURL
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	if maxInterval > 0 {
		b.MaxInterval = maxInterval
	}
	return &WSTransport{
		url:     url,
		log:     log,
		events:  make(chan TransportEvent, 256),
		backoff: b,
	}
}

// Events отдаёт канал уведомлений. Читать его должен ровно один потребитель.
func (t *WSTransport) Events() <-chan TransportEvent { return t.events }

// Connect начинает подключение в фоне и сразу возвращается.
func (t *WSTransport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.closeLocked()
	gen := t.gen.Add(1)

	var delay time.Duration
	if t.dialed {
		delay = t.backoff.NextBackOff()
	}
	t.dialed = true

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.dial(ctx, gen, delay)
	return nil
}

func (t *WSTransport) dial(ctx context.Context, gen uint64, delay time.Duration) {
	if delay > 0 {
		t.log.Info().Dur("delay", delay).Msg("twitch: waiting before reconnect")
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	conn, _, err := websocket.Dial(ctx, t.url, nil)
	if err != nil {
		if ctx.Err() == nil {
			t.publish(ctx, TransportEvent{Kind: TransportFailed, Err: fmt.Errorf("dial %s: %w", t.url, err), gen: gen})
		}
		return
	}
	conn.SetReadLimit(readLimit)

	t.mu.Lock()
	if t.gen.Load() != gen {
		t.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "superseded")
		return
	}
	t.conn = conn
	t.dialed = false
	t.backoff.Reset()
	t.connected.Store(true)
	t.mu.Unlock()

	t.publish(ctx, TransportEvent{Kind: TransportConnected, gen: gen})
	t.readLoop(ctx, conn, gen)
}

func (t *WSTransport) readLoop(ctx context.Context, conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || t.gen.Load() != gen {
				return
			}
			t.connected.Store(false)
			if status := websocket.CloseStatus(err); status != -1 {
				var ce websocket.CloseError
				reason := ""
				if errors.As(err, &ce) {
					reason = ce.Reason
				}
				t.publish(ctx, TransportEvent{Kind: TransportClosed, Code: int(status), Reason: reason, gen: gen})
				return
			}
			t.publish(ctx, TransportEvent{Kind: TransportFailed, Err: fmt.Errorf("read: %w", err), gen: gen})
			return
		}
		t.publish(ctx, TransportEvent{Kind: TransportMessage, Payload: string(data), gen: gen})
	}
}

func (t *WSTransport) publish(ctx context.Context, ev TransportEvent) {
	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}

// Send пишет строку, добавляя CRLF.
func (t *WSTransport) Send(line string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil || !t.connected.Load() {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte(line+"\r\n")); err != nil {
		return fmt.Errorf("twitch: write: %w", err)
	}
	return nil
}

// Close закрывает текущее соединение. События старого соединения, ещё
// лежащие в канале, отбрасываются в Dispatch.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen.Add(1)
	return t.closeLocked()
}

func (t *WSTransport) closeLocked() error {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.connected.Store(false)
	if t.conn == nil {
		return nil
	}
	conn := t.conn
	t.conn = nil
	if err := conn.CloseNow(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("twitch: close: %w", err)
	}
	return nil
}

func (t *WSTransport) Connected() bool { return t.connected.Load() }

// Dispatch передаёт событие обработчику, если оно относится к текущему
// соединению. Вызывается из той же горутины, что и методы Session.
func (t *WSTransport) Dispatch(ctx context.Context, ev TransportEvent, h TransportHandler) {
	if ev.gen != t.gen.Load() {
		return
	}
	switch ev.Kind {
	case TransportConnected:
		h.OnConnected(ctx)
	case TransportFailed:
		h.OnError(ctx, ev.Err)
	case TransportClosed:
		h.OnClosed(ctx, ev.Code, ev.Reason)
	case TransportMessage:
		h.OnMessage(ctx, ev.Payload)
	}
}
