package twitch

import (
	"context"

	"tmi-chatter/tmi"
)

// Event описывает событие сессии. Набор реализаций закрыт; обработчики разбирают его
// через type switch.
type Event interface {
	Name() string
	isEvent()
}

// Handler получает события сессии в порядке их возникновения.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event)
}

type HandlerFunc func(ctx context.Context, ev Event)

func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// CommandFunc вызывается для чат-команды вида "!name params".
// params содержит остаток сообщения вместе с ведущим пробелом.
type CommandFunc func(ctx context.Context, msg tmi.PrivMsg, params string)

// Жизненный цикл соединения.

type Connected struct{}

type AuthSuccess struct {
	State tmi.GlobalUserState
}

type AuthFailed struct {
	Reason string
}

type Disconnected struct {
	Code   int
	Reason string
}

type TransportError struct {
	Err error
}

// Членство в каналах. User содержит ник из источника строки.

type Joined struct {
	Channel string
	User    string
}

type Parted struct {
	Channel string
	User    string
}

// Сообщения чата.

type ChatMessage struct {
	Message tmi.PrivMsg
}

// Cheer приходит после ChatMessage, если в сообщении есть биты.
type Cheer struct {
	Message tmi.PrivMsg
}

type ChatCommand struct {
	Message tmi.PrivMsg
	Command string
	Params  string
}

type WhisperReceived struct {
	Message tmi.Whisper
}

type ChatCleared struct {
	Message tmi.ClearChat
}

type MessageCleared struct {
	Message tmi.ClearMsg
}

type NoticeReceived struct {
	Message tmi.Notice
}

type UserStateChanged struct {
	Message tmi.UserState
}

type RoomStateChanged struct {
	Message tmi.RoomState
}

// USERNOTICE и его подтипы. Подтип приходит сразу после UserNoticeReceived.

type UserNoticeReceived struct {
	Message tmi.UserNotice
}

type Subscribed struct {
	Notice tmi.UserNotice
	Sub    tmi.SubscriptionTags
}

type Resubscribed struct {
	Notice tmi.UserNotice
	Sub    tmi.SubscriptionTags
}

type SubGifted struct {
	Notice tmi.UserNotice
	Gift   tmi.SubGiftTags
}

type GiftUpgraded struct {
	Notice  tmi.UserNotice
	Upgrade tmi.GiftPaidUpgradeTags
}

type SubPaidForward struct {
	Notice  tmi.UserNotice
	Forward tmi.PaidForwardTags
}

type Raided struct {
	Notice tmi.UserNotice
	Raid   tmi.RaidTags
}

type RitualStarted struct {
	Notice tmi.UserNotice
	Ritual tmi.RitualTags
}

type BitsBadgeEarned struct {
	Notice tmi.UserNotice
	Tier   tmi.BitsBadgeTierTags
}

func (Connected) Name() string          { return "connected" }
func (AuthSuccess) Name() string        { return "auth_success" }
func (AuthFailed) Name() string         { return "auth_failed" }
func (Disconnected) Name() string       { return "disconnected" }
func (TransportError) Name() string     { return "transport_error" }
func (Joined) Name() string             { return "joined" }
func (Parted) Name() string             { return "parted" }
func (ChatMessage) Name() string        { return "chat_message" }
func (Cheer) Name() string              { return "cheer" }
func (ChatCommand) Name() string        { return "chat_command" }
func (WhisperReceived) Name() string    { return "whisper" }
func (ChatCleared) Name() string        { return "chat_cleared" }
func (MessageCleared) Name() string     { return "message_cleared" }
func (NoticeReceived) Name() string     { return "notice" }
func (UserStateChanged) Name() string   { return "user_state" }
func (RoomStateChanged) Name() string   { return "room_state" }
func (UserNoticeReceived) Name() string { return "user_notice" }
func (Subscribed) Name() string         { return "subscribed" }
func (Resubscribed) Name() string       { return "resubscribed" }
func (SubGifted) Name() string          { return "sub_gifted" }
func (GiftUpgraded) Name() string       { return "gift_upgraded" }
func (SubPaidForward) Name() string     { return "sub_paid_forward" }
func (Raided) Name() string             { return "raided" }
func (RitualStarted) Name() string      { return "ritual" }
func (BitsBadgeEarned) Name() string    { return "bits_badge" }

func (Connected) isEvent()          {}
func (AuthSuccess) isEvent()        {}
func (AuthFailed) isEvent()         {}
func (Disconnected) isEvent()       {}
func (TransportError) isEvent()     {}
func (Joined) isEvent()             {}
func (Parted) isEvent()             {}
func (ChatMessage) isEvent()        {}
func (Cheer) isEvent()              {}
func (ChatCommand) isEvent()        {}
func (WhisperReceived) isEvent()    {}
func (ChatCleared) isEvent()        {}
func (MessageCleared) isEvent()     {}
func (NoticeReceived) isEvent()     {}
func (UserStateChanged) isEvent()   {}
func (RoomStateChanged) isEvent()   {}
func (UserNoticeReceived) isEvent() {}
func (Subscribed) isEvent()         {}
func (Resubscribed) isEvent()       {}
func (SubGifted) isEvent()          {}
func (GiftUpgraded) isEvent()       {}
func (SubPaidForward) isEvent()     {}
func (Raided) isEvent()             {}
func (RitualStarted) isEvent()      {}
func (BitsBadgeEarned) isEvent()    {}
