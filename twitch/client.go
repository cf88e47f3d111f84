package twitch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tmi-chatter/config"
)

var (
	// ErrSessionClosed: сессия отключилась и не будет переподключаться
	// (потеря соединения без AutoReconnect).
	ErrSessionClosed = errors.New("twitch: session closed")

	// ErrAuthFailed: сервер отверг логин или токен.
	ErrAuthFailed = errors.New("twitch: authentication failed")

	// ErrQueueFull: очередь вызовов клиента переполнена.
	ErrQueueFull = errors.New("twitch: client queue is full")
)

const callQueueSize = 64

// Client владеет Session и WebSocket-транспортом. Run является единственным
// потребителем: события транспорта и вызовы API выполняются в одной горутине.
type Client struct {
	session   *Session
	transport *WSTransport
	opts      Options
	calls     chan func(context.Context)
	phase     atomic.Uint32
	log       zerolog.Logger
}

// NewClient собирает клиента из конфигурации и регистрирует обработчики событий.
func NewClient(cfg config.TwitchConfig, log zerolog.Logger, handlers ...Handler) *Client {
	transport := NewWSTransport(cfg.ServerURL, cfg.MaxReconnectInterval, log)
	session := NewSession(transport, log)
	for _, h := range handlers {
		session.AddHandler(h)
	}

	return &Client{
		session:   session,
		transport: transport,
		opts: Options{
			Username:      cfg.Username,
			Password:      cfg.OAuthToken,
			Channels:      cfg.Channels,
			AutoReconnect: cfg.AutoReconnect,
			FastMode:      cfg.FastMode,
			CommandPrefix: cfg.CommandPrefix,
		},
		calls: make(chan func(context.Context), callQueueSize),
		log:   log,
	}
}

// OnCommand привязывает обработчик к чат-команде. Вызывать до Run.
func (c *Client) OnCommand(name string, fn CommandFunc) {
	c.session.OnCommand(name, fn)
}

// Run подключается и обрабатывает события до отмены контекста или
// окончательного отключения сессии.
func (c *Client) Run(ctx context.Context) error {
	c.log.Info().Strs("channels", c.opts.Channels).Msg("twitch: connecting")
	if err := c.session.Connect(c.opts); err != nil {
		return err
	}
	c.phase.Store(uint32(c.session.Phase()))

	for {
		select {
		case <-ctx.Done():
			c.session.Disconnect(context.WithoutCancel(ctx))
			c.phase.Store(uint32(PhaseDisconnected))
			return ctx.Err()
		case ev := <-c.transport.Events():
			c.transport.Dispatch(ctx, ev, c.session)
		case fn := <-c.calls:
			fn(ctx)
		}

		if c.session.AuthRejected() {
			c.session.Disconnect(ctx)
			c.phase.Store(uint32(PhaseDisconnected))
			return ErrAuthFailed
		}
		c.phase.Store(uint32(c.session.Phase()))
		if c.session.Phase() == PhaseDisconnected {
			return ErrSessionClosed
		}
	}
}

// Phase возвращает фазу сессии на момент последней итерации Run.
// Безопасен для вызова из других горутин.
func (c *Client) Phase() Phase {
	return Phase(c.phase.Load())
}

// Join, Part и Say ставят вызов в очередь и не ждут его выполнения, поэтому
// их можно вызывать из обработчиков событий.

func (c *Client) Join(channel string) error {
	return c.enqueue(func(context.Context) { c.session.JoinChannel(channel) })
}

func (c *Client) Part(channel string) error {
	return c.enqueue(func(context.Context) { c.session.PartChannel(channel) })
}

func (c *Client) Say(channel, text string) error {
	return c.enqueue(func(context.Context) { _ = c.session.Send(channel, text) })
}

func (c *Client) enqueue(fn func(context.Context)) error {
	select {
	case c.calls <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}
