package tmi

import (
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
)

// Message описывает типизированное сообщение одной команды. Набор реализаций закрыт.
type Message interface {
	Kind() Command
	isMessage()
}

type PrivMsgTags struct {
	BadgeInfo              map[string]int
	Badges                 map[string]int
	Bits                   int
	Color                  colorful.Color
	DisplayName            string
	Emotes                 map[string][]EmoteRange
	ID                     uuid.UUID
	Mod                    bool
	Subscriber             bool
	Turbo                  bool
	VIP                    bool
	FirstMsg               bool
	ReturningChatter       bool
	RoomID                 string
	UserID                 string
	UserType               UserType
	SentTimestamp          int64
	CustomRewardID         uuid.UUID
	ReplyParentMsgID       uuid.UUID
	ReplyParentUserID      string
	ReplyParentUserLogin   string
	ReplyParentDisplayName string
	ReplyParentMsgBody     string
}

// PrivMsg: обычное сообщение в чате канала.
type PrivMsg struct {
	Channel   string
	Sender    string
	Text      string
	TagsValid bool
	Tags      PrivMsgTags
}

func NewPrivMsg(b Bundle, t Tags, valid bool) PrivMsg {
	return PrivMsg{
		Channel:   b.Target,
		Sender:    b.Source,
		Text:      b.Params,
		TagsValid: valid,
		Tags: PrivMsgTags{
			BadgeInfo:              t.BadgeInfo,
			Badges:                 t.Badges,
			Bits:                   t.Bits,
			Color:                  t.Color,
			DisplayName:            t.DisplayName,
			Emotes:                 t.Emotes,
			ID:                     t.ID,
			Mod:                    t.Mod,
			Subscriber:             t.Subscriber,
			Turbo:                  t.Turbo,
			VIP:                    t.VIP,
			FirstMsg:               t.FirstMsg,
			ReturningChatter:       t.ReturningChatter,
			RoomID:                 t.RoomID,
			UserID:                 t.UserID,
			UserType:               t.UserType,
			SentTimestamp:          t.SentTimestamp,
			CustomRewardID:         t.CustomRewardID,
			ReplyParentMsgID:       t.ReplyParentMsgID,
			ReplyParentUserID:      t.ReplyParentUserID,
			ReplyParentUserLogin:   t.ReplyParentUserLogin,
			ReplyParentDisplayName: t.ReplyParentDisplayName,
			ReplyParentMsgBody:     t.ReplyParentMsgBody,
		},
	}
}

// IsReply сообщает, отвечает ли сообщение на другое.
func (m PrivMsg) IsReply() bool { return m.Tags.ReplyParentMsgID != uuid.Nil }

type WhisperTags struct {
	Badges      map[string]int
	Color       colorful.Color
	DisplayName string
	Emotes      map[string][]EmoteRange
	MessageID   string
	ThreadID    string
	Turbo       bool
	UserID      string
	UserType    UserType
}

// Whisper: личное сообщение. В Recipient лежит логин получателя.
type Whisper struct {
	Sender    string
	Recipient string
	Text      string
	TagsValid bool
	Tags      WhisperTags
}

func NewWhisper(b Bundle, t Tags, valid bool) Whisper {
	return Whisper{
		Sender:    b.Source,
		Recipient: b.Target,
		Text:      b.Params,
		TagsValid: valid,
		Tags: WhisperTags{
			Badges:      t.Badges,
			Color:       t.Color,
			DisplayName: t.DisplayName,
			Emotes:      t.Emotes,
			MessageID:   t.MessageID,
			ThreadID:    t.ThreadID,
			Turbo:       t.Turbo,
			UserID:      t.UserID,
			UserType:    t.UserType,
		},
	}
}

type ClearChatTags struct {
	BanDuration   int // секунды; 0 при перманентном бане или очистке чата
	RoomID        string
	TargetUserID  string
	SentTimestamp int64
}

// ClearChat: очистка чата целиком (User пуст) или сообщений одного пользователя.
type ClearChat struct {
	Channel   string
	User      string
	TagsValid bool
	Tags      ClearChatTags
}

func NewClearChat(b Bundle, t Tags, valid bool) ClearChat {
	return ClearChat{
		Channel:   b.Target,
		User:      b.Params,
		TagsValid: valid,
		Tags: ClearChatTags{
			BanDuration:   t.BanDuration,
			RoomID:        t.RoomID,
			TargetUserID:  t.TargetUserID,
			SentTimestamp: t.SentTimestamp,
		},
	}
}

type ClearMsgTags struct {
	Login         string
	RoomID        string
	TargetMsgID   string
	SentTimestamp int64
}

// ClearMsg: удаление одного сообщения, в Text его текст.
type ClearMsg struct {
	Channel   string
	Text      string
	TagsValid bool
	Tags      ClearMsgTags
}

func NewClearMsg(b Bundle, t Tags, valid bool) ClearMsg {
	return ClearMsg{
		Channel:   b.Target,
		Text:      b.Params,
		TagsValid: valid,
		Tags: ClearMsgTags{
			Login:         t.Login,
			RoomID:        t.RoomID,
			TargetMsgID:   t.TargetMsgID,
			SentTimestamp: t.SentTimestamp,
		},
	}
}

type NoticeTags struct {
	MsgID        string
	TargetUserID string
}

// Notice: служебное уведомление сервера. Channel "*" приходит до входа.
type Notice struct {
	Channel   string
	Text      string
	TagsValid bool
	Tags      NoticeTags
}

func NewNotice(b Bundle, t Tags, valid bool) Notice {
	return Notice{
		Channel:   b.Target,
		Text:      b.Params,
		TagsValid: valid,
		Tags: NoticeTags{
			MsgID:        t.NoticeID,
			TargetUserID: t.TargetUserID,
		},
	}
}

type UserNoticeTags struct {
	BadgeInfo     map[string]int
	Badges        map[string]int
	Color         colorful.Color
	DisplayName   string
	Emotes        map[string][]EmoteRange
	ID            uuid.UUID
	Login         string
	Kind          UserNoticeKind
	SystemMsg     string
	Mod           bool
	Subscriber    bool
	Turbo         bool
	RoomID        string
	UserID        string
	UserType      UserType
	SentTimestamp int64
	Params        MessageParams
}

// UserNotice: событие канала (подписка, рейд, подарок и т.п.).
// Text содержит необязательное сообщение пользователя.
type UserNotice struct {
	Channel   string
	Text      string
	TagsValid bool
	Tags      UserNoticeTags
}

func NewUserNotice(b Bundle, t Tags, valid bool) UserNotice {
	return UserNotice{
		Channel:   b.Target,
		Text:      b.Params,
		TagsValid: valid,
		Tags: UserNoticeTags{
			BadgeInfo:     t.BadgeInfo,
			Badges:        t.Badges,
			Color:         t.Color,
			DisplayName:   t.DisplayName,
			Emotes:        t.Emotes,
			ID:            t.ID,
			Login:         t.Login,
			Kind:          t.NoticeKind,
			SystemMsg:     t.SystemMsg,
			Mod:           t.Mod,
			Subscriber:    t.Subscriber,
			Turbo:         t.Turbo,
			RoomID:        t.RoomID,
			UserID:        t.UserID,
			UserType:      t.UserType,
			SentTimestamp: t.SentTimestamp,
			Params:        t.Params,
		},
	}
}

type UserStateTags struct {
	BadgeInfo   map[string]int
	Badges      map[string]int
	Color       colorful.Color
	DisplayName string
	EmoteSets   []string
	ID          uuid.UUID
	Mod         bool
	Subscriber  bool
	Turbo       bool
	UserType    UserType
}

// UserState: состояние нашего пользователя в канале после JOIN или PRIVMSG.
type UserState struct {
	Channel   string
	TagsValid bool
	Tags      UserStateTags
}

func NewUserState(b Bundle, t Tags, valid bool) UserState {
	return UserState{
		Channel:   b.Target,
		TagsValid: valid,
		Tags: UserStateTags{
			BadgeInfo:   t.BadgeInfo,
			Badges:      t.Badges,
			Color:       t.Color,
			DisplayName: t.DisplayName,
			EmoteSets:   t.EmoteSets,
			ID:          t.ID,
			Mod:         t.Mod,
			Subscriber:  t.Subscriber,
			Turbo:       t.Turbo,
			UserType:    t.UserType,
		},
	}
}

type GlobalUserStateTags struct {
	BadgeInfo   map[string]int
	Badges      map[string]int
	Color       colorful.Color
	DisplayName string
	EmoteSets   []string
	Turbo       bool
	UserID      string
	UserType    UserType
}

// GlobalUserState приходит один раз после успешной аутентификации.
type GlobalUserState struct {
	TagsValid bool
	Tags      GlobalUserStateTags
}

func NewGlobalUserState(_ Bundle, t Tags, valid bool) GlobalUserState {
	return GlobalUserState{
		TagsValid: valid,
		Tags: GlobalUserStateTags{
			BadgeInfo:   t.BadgeInfo,
			Badges:      t.Badges,
			Color:       t.Color,
			DisplayName: t.DisplayName,
			EmoteSets:   t.EmoteSets,
			Turbo:       t.Turbo,
			UserID:      t.UserID,
			UserType:    t.UserType,
		},
	}
}

type RoomStateTags struct {
	EmoteOnly     bool
	FollowersOnly int
	R9K           bool
	Rituals       bool
	RoomID        string
	Slow          int
	SubsOnly      bool
}

// FollowersOnlyEnabled: 0 минут тоже включённый режим (писать могут все фолловеры).
func (t RoomStateTags) FollowersOnlyEnabled() bool { return t.FollowersOnly >= 0 }

func (t RoomStateTags) SlowMode() bool { return t.Slow > 0 }

// RoomState: настройки чата канала. Twitch присылает только изменившиеся
// поля, поэтому при частичном обновлении остальные значения остаются умолчаниями.
type RoomState struct {
	Channel   string
	TagsValid bool
	Tags      RoomStateTags
}

func NewRoomState(b Bundle, t Tags, valid bool) RoomState {
	return RoomState{
		Channel:   b.Target,
		TagsValid: valid,
		Tags: RoomStateTags{
			EmoteOnly:     t.EmoteOnly,
			FollowersOnly: t.FollowersOnly,
			R9K:           t.R9K,
			Rituals:       t.Rituals,
			RoomID:        t.RoomID,
			Slow:          t.Slow,
			SubsOnly:      t.SubsOnly,
		},
	}
}

func (PrivMsg) Kind() Command         { return CommandPrivmsg }
func (Whisper) Kind() Command         { return CommandWhisper }
func (ClearChat) Kind() Command       { return CommandClearChat }
func (ClearMsg) Kind() Command        { return CommandClearMsg }
func (Notice) Kind() Command          { return CommandNotice }
func (UserNotice) Kind() Command      { return CommandUserNotice }
func (UserState) Kind() Command       { return CommandUserState }
func (GlobalUserState) Kind() Command { return CommandGlobalUserState }
func (RoomState) Kind() Command       { return CommandRoomState }

func (PrivMsg) isMessage()         {}
func (Whisper) isMessage()         {}
func (ClearChat) isMessage()       {}
func (ClearMsg) isMessage()        {}
func (Notice) isMessage()          {}
func (UserNotice) isMessage()      {}
func (UserState) isMessage()       {}
func (GlobalUserState) isMessage() {}
func (RoomState) isMessage()       {}

// Build декодирует теги один раз и строит сообщение для команды строки.
// Для команд без типизированного сообщения (PING, JOIN, PART, CAP,
// RECONNECT, HOSTTARGET, неизвестных) возвращает nil.
func (p *Parser) Build(b Bundle) Message {
	switch b.Command {
	case CommandPrivmsg, CommandWhisper, CommandClearChat, CommandClearMsg, CommandNotice,
		CommandUserNotice, CommandUserState, CommandGlobalUserState, CommandRoomState:
	default:
		return nil
	}

	t, valid := p.DecodeTags(b.Command, b.Tags)
	switch b.Command {
	case CommandPrivmsg:
		return NewPrivMsg(b, t, valid)
	case CommandWhisper:
		return NewWhisper(b, t, valid)
	case CommandClearChat:
		return NewClearChat(b, t, valid)
	case CommandClearMsg:
		return NewClearMsg(b, t, valid)
	case CommandNotice:
		return NewNotice(b, t, valid)
	case CommandUserNotice:
		return NewUserNotice(b, t, valid)
	case CommandUserState:
		return NewUserState(b, t, valid)
	case CommandGlobalUserState:
		return NewGlobalUserState(b, t, valid)
	default:
		return NewRoomState(b, t, valid)
	}
}

// Parse = Split + Build.
func (p *Parser) Parse(line string) (Bundle, Message) {
	b := p.Split(line)
	return b, p.Build(b)
}

// Parse разбирает строку парсером без логирования.
func Parse(line string) (Bundle, Message) {
	return defaultParser.Parse(line)
}
