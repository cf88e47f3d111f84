package storage

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tmi-chatter/metrics"
	"tmi-chatter/model"
)

// BatchConfig задаёт параметры батчинга для вставки сообщений.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// Batcher асинхронно вставляет сообщения чата через pgx.Batch.
type Batcher struct {
	input   chan model.ChatMessage
	config  BatchConfig
	sender  batchSender
	log     zerolog.Logger
	dropped atomic.Uint64
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const insertChatMessage = `
insert into chat_messages (
  message_id, channel, room_id, user_id, username, display_name, text, badges, color,
  is_mod, is_subscriber, is_vip, first_msg, bits, reply_parent_msg_id, sent_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
on conflict (message_id) do nothing;`

// NewBatcher создаёт батчер и запускает фоновые флаши.
func NewBatcher(ctx context.Context, pool *pgxpool.Pool, cfg BatchConfig, log zerolog.Logger) *Batcher {
	return newBatcher(ctx, pool, cfg, log)
}

// Enqueue пытается добавить сообщение в очередь; при переполнении возвращает false.
func (b *Batcher) Enqueue(msg model.ChatMessage) bool {
	select {
	case b.input <- msg:
		return true
	default:
		metrics.RecordBatcherDrop()
		dropped := b.dropped.Add(1)
		if dropped%100 == 0 {
			b.log.Warn().Uint64("dropped", dropped).Msg("батчер: очередь заполнена")
		}
		return false
	}
}

// Dropped возвращает число сообщений, отброшенных из-за переполнения.
func (b *Batcher) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Batcher) run(ctx context.Context) {
	flushTicker := time.NewTicker(b.config.FlushEvery)
	statsTicker := time.NewTicker(b.config.StatsLogEvery)
	defer flushTicker.Stop()
	defer statsTicker.Stop()

	var (
		batch            = &pgx.Batch{}
		pending          = 0
		totalInserted    uint64
		intervalInserted uint64
	)

	flush := func() {
		if pending == 0 {
			return
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), b.config.FlushTimeout)
		defer cancel()

		br := b.sender.SendBatch(dbCtx, batch)
		if err := br.Close(); err != nil {
			b.log.Error().Err(err).Int("rows", pending).Msg("батчер: ошибка флаша")
		}

		totalInserted += uint64(pending)
		intervalInserted += uint64(pending)

		batch = &pgx.Batch{}
		pending = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			b.log.Info().Uint64("total", totalInserted).Msg("батчер: контекст отменён")
			return
		case <-flushTicker.C:
			flush()
		case <-statsTicker.C:
			b.log.Info().
				Uint64("inserted", intervalInserted).
				Dur("interval", b.config.StatsLogEvery).
				Uint64("total", totalInserted).
				Msg("батчер: статистика")
			intervalInserted = 0
		case msg := <-b.input:
			queueChatMessage(batch, msg)
			pending++
			if pending >= b.config.MaxBatch {
				flush()
			}
		}
	}
}

func queueChatMessage(batch *pgx.Batch, msg model.ChatMessage) {
	badgesJSON, _ := json.Marshal(msg.Badges)
	batch.Queue(insertChatMessage,
		msg.ID, msg.Channel, nullable(msg.RoomID), nullable(msg.UserID), msg.Username, nullable(msg.DisplayName),
		msg.Text, badgesJSON, nullable(msg.Color),
		msg.IsMod, msg.IsSubscriber, msg.IsVIP, msg.FirstMsg, msg.Bits, nullable(msg.ReplyParentMsgID),
		msg.SentAt.UTC(),
	)
}

// nullable превращает пустую строку в NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newBatcher(ctx context.Context, sender batchSender, cfg BatchConfig, log zerolog.Logger) *Batcher {
	b := &Batcher{
		input:  make(chan model.ChatMessage, cfg.ChanBuffer),
		config: cfg,
		sender: sender,
		log:    log,
	}

	go b.run(ctx)

	return b
}
