package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"tmi-chatter/model"
	"tmi-chatter/storage"
	"tmi-chatter/tmi"
	"tmi-chatter/twitch"
)

// Service управляет жизненным циклом Twitch клиента.
type Service struct {
	client *twitch.Client
	log    zerolog.Logger
}

// New создаёт Service с уже собранным Twitch клиентом. При commandReply
// клиент отвечает "pong" на !ping.
func New(client *twitch.Client, log zerolog.Logger, commandReply bool) *Service {
	if commandReply {
		client.OnCommand("ping", PingCommand(client, log))
	}
	return &Service{client: client, log: log}
}

// Run подключает Twitch клиент и блокируется до отмены контекста или ошибки.
func (s *Service) Run(ctx context.Context) error {
	return s.client.Run(ctx)
}

type sayer interface {
	Say(channel, text string) error
}

// PingCommand отвечает "pong" в канал, где прозвучала команда.
func PingCommand(client sayer, log zerolog.Logger) twitch.CommandFunc {
	return func(_ context.Context, msg tmi.PrivMsg, _ string) {
		if err := client.Say(msg.Channel, "pong"); err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("не удалось ответить на !ping")
		}
	}
}

type enqueuer interface {
	Enqueue(msg model.ChatMessage) bool
}

type noticeDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Handler реализует twitch.Handler и перенаправляет события в хранилище.
type Handler struct {
	batcher      enqueuer
	db           noticeDB
	flushTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

// NewHandler собирает Handler, используемый сессией Twitch.
func NewHandler(batcher enqueuer, db noticeDB, flushTimeout time.Duration, log zerolog.Logger) *Handler {
	return &Handler{batcher: batcher, db: db, flushTimeout: flushTimeout, log: log, now: time.Now}
}

func (h *Handler) HandleEvent(ctx context.Context, ev twitch.Event) {
	switch e := ev.(type) {
	case twitch.ChatMessage:
		h.handleChat(e.Message)
	case twitch.NoticeReceived:
		h.saveNotice(ctx, noticeFromNotice(e.Message, h.now()))
	case twitch.UserNoticeReceived:
		h.saveNotice(ctx, noticeFromUserNotice(e.Message, h.now()))
	case twitch.AuthSuccess:
		h.log.Info().Str("display_name", e.State.Tags.DisplayName).Msg("вход в чат выполнен")
	case twitch.AuthFailed:
		h.log.Error().Str("reason", e.Reason).Msg("ошибка входа в чат")
	case twitch.Joined:
		h.log.Debug().Str("channel", e.Channel).Str("user", e.User).Msg("join")
	case twitch.Parted:
		h.log.Debug().Str("channel", e.Channel).Str("user", e.User).Msg("part")
	case twitch.Disconnected:
		h.log.Warn().Int("code", e.Code).Str("reason", e.Reason).Msg("соединение закрыто")
	case twitch.TransportError:
		h.log.Warn().Err(e.Err).Msg("ошибка транспорта")
	case twitch.Raided:
		h.log.Info().
			Str("channel", e.Notice.Channel).
			Str("from", e.Raid.Login).
			Int("viewers", e.Raid.ViewerCount).
			Msg("рейд")
	}
}

func (h *Handler) handleChat(msg tmi.PrivMsg) {
	if ok := h.batcher.Enqueue(toChatMessage(msg, h.now())); !ok {
		h.log.Debug().Str("channel", msg.Channel).Msg("батчер: сообщение отброшено")
	}
}

func (h *Handler) saveNotice(ctx context.Context, notice model.Notice) {
	if err := storage.SaveNotice(ctx, h.db, notice, h.flushTimeout); err != nil {
		h.log.Error().Err(err).Str("channel", notice.Channel).Str("kind", notice.Kind).Msg("ошибка сохранения notice")
	}
}

func toChatMessage(msg tmi.PrivMsg, now time.Time) model.ChatMessage {
	t := msg.Tags
	out := model.ChatMessage{
		ID:           guidString(t.ID),
		Channel:      msg.Channel,
		RoomID:       t.RoomID,
		UserID:       t.UserID,
		Username:     msg.Sender,
		DisplayName:  t.DisplayName,
		Text:         msg.Text,
		Badges:       t.Badges,
		Color:        colorString(t.Color),
		IsMod:        t.Mod || t.Badges["moderator"] > 0 || t.Badges["broadcaster"] > 0,
		IsSubscriber: t.Subscriber || t.Badges["subscriber"] > 0,
		IsVIP:        t.VIP,
		FirstMsg:     t.FirstMsg,
		Bits:         t.Bits,
		SentAt:       sentAt(t.SentTimestamp, now),
	}
	if msg.IsReply() {
		out.ReplyParentMsgID = t.ReplyParentMsgID.String()
	}
	if out.ID == "" {
		// message_id является первичным ключом; без id из тегов генерируем свой.
		out.ID = uuid.NewString()
	}
	return out
}

func noticeFromNotice(msg tmi.Notice, now time.Time) model.Notice {
	tags := map[string]string{}
	putTag(tags, "msg-id", msg.Tags.MsgID)
	putTag(tags, "target-user-id", msg.Tags.TargetUserID)

	return model.Notice{
		Channel:  msg.Channel,
		Kind:     model.NoticeKindNotice,
		ID:       msg.Tags.MsgID,
		Message:  msg.Text,
		Tags:     tags,
		NoticeAt: now.UTC(),
	}
}

func noticeFromUserNotice(msg tmi.UserNotice, now time.Time) model.Notice {
	t := msg.Tags
	tags := map[string]string{}
	putTag(tags, "msg-id", t.Kind.String())
	putTag(tags, "id", guidString(t.ID))
	putTag(tags, "login", t.Login)
	putTag(tags, "display-name", t.DisplayName)
	putTag(tags, "user-id", t.UserID)
	putTag(tags, "room-id", t.RoomID)

	switch t.Kind {
	case tmi.UserNoticeSubscription, tmi.UserNoticeResubscription:
		sub := t.Subscription()
		putTag(tags, "msg-param-cumulative-months", itoa(sub.CumulativeMonths))
		putTag(tags, "msg-param-sub-plan", sub.SubPlan.String())
	case tmi.UserNoticeSubscriptionGift, tmi.UserNoticeSubscriptionMysteryGift:
		gift := t.SubGift()
		putTag(tags, "msg-param-recipient-user-name", gift.RecipientUsername)
		putTag(tags, "msg-param-sub-plan", gift.SubPlan.String())
		putTag(tags, "msg-param-mass-gift-count", itoa(gift.MassGiftCount))
	case tmi.UserNoticeRaid:
		raid := t.Raid()
		putTag(tags, "msg-param-login", raid.Login)
		putTag(tags, "msg-param-viewerCount", itoa(raid.ViewerCount))
	case tmi.UserNoticeBitsBadgeTier:
		putTag(tags, "msg-param-threshold", itoa(t.BitsBadgeTier().Threshold))
	case tmi.UserNoticeRitual:
		putTag(tags, "msg-param-ritual-name", t.Ritual().RitualName)
	}

	return model.Notice{
		Channel:   msg.Channel,
		Kind:      model.NoticeKindUserNotice,
		ID:        t.Kind.String(),
		Message:   msg.Text,
		SystemMsg: t.SystemMsg,
		Tags:      tags,
		NoticeAt:  sentAt(t.SentTimestamp, now),
	}
}

func putTag(tags map[string]string, key, value string) {
	if value != "" {
		tags[key] = value
	}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func guidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// Чёрный цвет совпадает со значением по умолчанию и хранится как NULL.
func colorString(c colorful.Color) string {
	if c == (colorful.Color{}) {
		return ""
	}
	return c.Hex()
}

func sentAt(ms int64, now time.Time) time.Time {
	if ms <= 0 {
		return now.UTC()
	}
	return time.UnixMilli(ms).UTC()
}
