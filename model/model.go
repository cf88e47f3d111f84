package model

import "time"

// ChatMessage — нормализованная модель сообщения чата Twitch.
type ChatMessage struct {
	ID               string
	Channel          string
	RoomID           string
	UserID           string
	Username         string
	DisplayName      string
	Text             string
	Badges           map[string]int
	Color            string // "#rrggbb" или пусто, если цвет не выбран
	IsMod            bool
	IsSubscriber     bool
	IsVIP            bool
	FirstMsg         bool
	Bits             int
	ReplyParentMsgID string
	SentAt           time.Time
}

// Notice описывает NOTICE или USERNOTICE, полученный от Twitch.
// Для USERNOTICE в ID лежит вид события (sub, raid, ...).
type Notice struct {
	Channel   string
	Kind      string // "notice" или "usernotice"
	ID        string
	Message   string
	SystemMsg string
	Tags      map[string]string
	NoticeAt  time.Time
}

const (
	NoticeKindNotice     = "notice"
	NoticeKindUserNotice = "usernotice"
)
