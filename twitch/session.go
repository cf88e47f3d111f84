package twitch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"tmi-chatter/metrics"
	"tmi-chatter/tmi"
)

// ErrSessionActive: Connect вызван, пока сессия не в PhaseDisconnected.
var ErrSessionActive = errors.New("twitch: session is already active")

// DefaultCommandPrefix задаёт префикс чат-команд по умолчанию.
const DefaultCommandPrefix = "!"

// Phase описывает фазу соединения сессии.
type Phase uint8

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseAwaitingAuth
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitingAuth:
		return "awaiting_auth"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Options задаёт параметры одного подключения.
type Options struct {
	Username      string
	Password      string // OAuth-токен, с префиксом "oauth:" или без
	Channels      []string
	AutoReconnect bool
	FastMode      bool // без CAP twitch.tv/tags: меньше трафика, теги не приходят
	CommandPrefix string
}

// Session реализует протокольный автомат клиента TMI: рукопожатие, членство в
// каналах, переподключение и раздача событий.
//
// Session не защищена блокировками: все методы, включая методы
// TransportHandler, должны вызываться из одной горутины (см. Client).
type Session struct {
	transport Transport
	parser    *tmi.Parser
	log       zerolog.Logger

	phase         Phase
	username      string
	password      string
	wanted        []string // каналы, в которых сессия должна быть после входа
	joined        []string
	autoReconnect bool
	fastMode      bool
	prefix        string
	rejected      bool // сервер отверг учётные данные

	handlers []Handler
	commands map[string][]CommandFunc
}

// NewSession создаёт сессию поверх транспорта. Предупреждения парсера пишутся в log.
func NewSession(transport Transport, log zerolog.Logger) *Session {
	return &Session{
		transport: transport,
		parser:    tmi.NewParser(log),
		log:       log,
		prefix:    DefaultCommandPrefix,
		commands:  make(map[string][]CommandFunc),
	}
}

func (s *Session) Phase() Phase { return s.phase }

// Channels возвращает копию списка каналов, в которые отправлен JOIN.
func (s *Session) Channels() []string { return slices.Clone(s.joined) }

func (s *Session) Username() string { return s.username }

// AuthRejected сообщает, что сервер отверг вход в текущем подключении.
func (s *Session) AuthRejected() bool { return s.rejected }

// AddHandler регистрирует обработчик событий. Обработчики вызываются
// синхронно в порядке регистрации.
func (s *Session) AddHandler(h Handler) {
	s.handlers = append(s.handlers, h)
}

// ResetHandlers удаляет все обработчики событий. Привязки команд остаются.
func (s *Session) ResetHandlers() {
	s.handlers = nil
}

// OnCommand привязывает fn к чат-команде name (без префикса).
func (s *Session) OnCommand(name string, fn CommandFunc) {
	s.commands[name] = append(s.commands[name], fn)
}

func (s *Session) RemoveCommand(name string) {
	delete(s.commands, name)
}

func (s *Session) ClearCommands() {
	clear(s.commands)
}

// Connect запоминает учётные данные и начинает подключение транспорта.
// Рукопожатие продолжится в OnConnected.
func (s *Session) Connect(opts Options) error {
	if s.phase != PhaseDisconnected {
		return ErrSessionActive
	}

	s.username = strings.ToLower(strings.TrimSpace(opts.Username))
	s.password = strings.TrimPrefix(opts.Password, "oauth:")
	s.autoReconnect = opts.AutoReconnect
	s.rejected = false
	s.fastMode = opts.FastMode
	s.prefix = opts.CommandPrefix
	if s.prefix == "" {
		s.prefix = DefaultCommandPrefix
	}
	s.wanted = s.wanted[:0]
	for _, ch := range opts.Channels {
		if c := normalizeChannel(ch); c != "" && !slices.Contains(s.wanted, c) {
			s.wanted = append(s.wanted, c)
		}
	}

	s.phase = PhaseConnecting
	if err := s.transport.Connect(); err != nil {
		s.phase = PhaseDisconnected
		return fmt.Errorf("twitch: connect: %w", err)
	}
	return nil
}

// Disconnect покидает каналы, прощается с сервером и закрывает транспорт.
// Учётные данные сбрасываются.
func (s *Session) Disconnect(ctx context.Context) {
	if s.phase == PhaseDisconnected {
		// соединение могло пропасть раньше, но учётные данные всё равно забываем
		s.username = ""
		s.password = ""
		return
	}

	if s.transport.Connected() {
		for _, ch := range s.joined {
			s.send("PART #" + ch)
		}
		s.send("QUIT :Goodbye")
	}
	if err := s.transport.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close transport")
	}

	s.reset()
	s.username = ""
	s.password = ""
	s.wanted = nil
	s.emit(ctx, Disconnected{Reason: "disconnect requested"})
}

// JoinChannel добавляет канал в список желаемых. JOIN уходит сразу, если
// сессия уже вошла, иначе после GLOBALUSERSTATE. Повторный вызов ничего не делает.
func (s *Session) JoinChannel(channel string) {
	c := normalizeChannel(channel)
	if c == "" {
		return
	}
	if !slices.Contains(s.wanted, c) {
		s.wanted = append(s.wanted, c)
	}
	if s.phase != PhaseAuthenticated || slices.Contains(s.joined, c) {
		return
	}
	if s.send("JOIN #"+c) == nil {
		s.joined = append(s.joined, c)
		metrics.SetJoinedChannels(len(s.joined))
	}
}

func (s *Session) JoinChannels(channels []string) {
	for _, ch := range channels {
		s.JoinChannel(ch)
	}
}

// PartChannel отправляет PART и сразу убирает канал из членства, не дожидаясь
// ответа сервера.
func (s *Session) PartChannel(channel string) {
	c := normalizeChannel(channel)
	if c == "" {
		return
	}
	s.wanted = slices.DeleteFunc(s.wanted, func(ch string) bool { return ch == c })
	i := slices.Index(s.joined, c)
	if i < 0 {
		return
	}
	s.send("PART #" + c)
	s.joined = slices.Delete(s.joined, i, i+1)
	metrics.SetJoinedChannels(len(s.joined))
}

// Send пишет text в канал. Пустой канал или текст игнорируются.
func (s *Session) Send(channel, text string) error {
	c := normalizeChannel(channel)
	if c == "" || text == "" {
		return nil
	}
	return s.send("PRIVMSG #" + c + " :" + text)
}

// Broadcast пишет text во все каналы, где состоит сессия.
func (s *Session) Broadcast(text string) error {
	if text == "" {
		return nil
	}
	var errs []error
	for _, ch := range s.joined {
		if err := s.Send(ch, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnConnected начинает рукопожатие: CAP, PASS, NICK.
func (s *Session) OnConnected(ctx context.Context) {
	s.joined = nil
	metrics.SetJoinedChannels(0)
	s.phase = PhaseAwaitingAuth
	s.log.Info().Str("user", s.username).Msg("twitch: socket connected")
	s.emit(ctx, Connected{})

	if !s.fastMode {
		s.send("CAP REQ :twitch.tv/tags")
	}
	s.send("CAP REQ :twitch.tv/commands")
	s.send("PASS oauth:" + s.password)
	s.send("NICK " + s.username)
}

// OnError сбрасывает сессию и, если разрешено, переподключается.
func (s *Session) OnError(ctx context.Context, err error) {
	s.log.Warn().Err(err).Str("phase", s.phase.String()).Msg("twitch: transport error")
	s.emit(ctx, TransportError{Err: err})
	s.lost(ctx, Disconnected{Reason: err.Error()})
}

// OnClosed вызывается только для закрытий, начатых сервером или сетью.
func (s *Session) OnClosed(ctx context.Context, code int, reason string) {
	s.log.Info().Int("code", code).Str("reason", reason).Msg("twitch: socket closed")
	s.lost(ctx, Disconnected{Code: code, Reason: reason})
}

// OnMessage разбирает payload, который может содержать несколько строк через CRLF.
func (s *Session) OnMessage(ctx context.Context, payload string) {
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		s.handleLine(ctx, line)
	}
}

func (s *Session) handleLine(ctx context.Context, line string) {
	b := s.parser.Split(line)
	metrics.RecordFrame(b.Command.String())

	switch b.Command {
	case tmi.CommandPing:
		s.send("PONG :" + b.Params)

	case tmi.CommandReconnect:
		s.log.Info().Msg("twitch: server requested reconnect")
		s.reconnect(ctx)

	case tmi.CommandJoin:
		if b.Source == s.username {
			c := normalizeChannel(b.Target)
			if c != "" && !slices.Contains(s.joined, c) {
				s.joined = append(s.joined, c)
				metrics.SetJoinedChannels(len(s.joined))
			}
		}
		s.emit(ctx, Joined{Channel: b.Target, User: b.Source})

	case tmi.CommandPart:
		if b.Source == s.username {
			c := normalizeChannel(b.Target)
			s.joined = slices.DeleteFunc(s.joined, func(ch string) bool { return ch == c })
			metrics.SetJoinedChannels(len(s.joined))
		}
		s.emit(ctx, Parted{Channel: b.Target, User: b.Source})

	case tmi.CommandPrivmsg:
		if s.username != "" && b.Source == s.username {
			return
		}
		s.handlePrivMsg(ctx, s.parser.Build(b).(tmi.PrivMsg))

	case tmi.CommandNotice:
		msg := s.parser.Build(b).(tmi.Notice)
		if s.phase != PhaseAuthenticated && msg.Channel == "*" {
			s.authFailed(ctx, msg.Text)
			return
		}
		s.emit(ctx, NoticeReceived{Message: msg})

	case tmi.CommandGlobalUserState:
		msg := s.parser.Build(b).(tmi.GlobalUserState)
		s.phase = PhaseAuthenticated
		s.log.Info().Str("user", s.username).Strs("channels", s.wanted).Msg("twitch: authenticated")
		s.emit(ctx, AuthSuccess{State: msg})
		s.JoinChannels(slices.Clone(s.wanted))

	case tmi.CommandUserNotice:
		s.handleUserNotice(ctx, s.parser.Build(b).(tmi.UserNotice))

	case tmi.CommandClearChat:
		s.emit(ctx, ChatCleared{Message: s.parser.Build(b).(tmi.ClearChat)})
	case tmi.CommandClearMsg:
		s.emit(ctx, MessageCleared{Message: s.parser.Build(b).(tmi.ClearMsg)})
	case tmi.CommandWhisper:
		s.emit(ctx, WhisperReceived{Message: s.parser.Build(b).(tmi.Whisper)})
	case tmi.CommandUserState:
		s.emit(ctx, UserStateChanged{Message: s.parser.Build(b).(tmi.UserState)})
	case tmi.CommandRoomState:
		s.emit(ctx, RoomStateChanged{Message: s.parser.Build(b).(tmi.RoomState)})
	}
}

func (s *Session) handlePrivMsg(ctx context.Context, msg tmi.PrivMsg) {
	s.emit(ctx, ChatMessage{Message: msg})
	if msg.Tags.Bits > 0 {
		s.emit(ctx, Cheer{Message: msg})
	}

	name, params, ok := splitCommand(msg.Text, s.prefix)
	if !ok {
		return
	}
	s.emit(ctx, ChatCommand{Message: msg, Command: name, Params: params})
	for _, fn := range s.commands[name] {
		fn(ctx, msg, params)
	}
}

func (s *Session) handleUserNotice(ctx context.Context, msg tmi.UserNotice) {
	s.emit(ctx, UserNoticeReceived{Message: msg})

	tags := msg.Tags
	switch tags.Kind {
	case tmi.UserNoticeSubscription:
		s.emit(ctx, Subscribed{Notice: msg, Sub: tags.Subscription()})
	case tmi.UserNoticeResubscription:
		s.emit(ctx, Resubscribed{Notice: msg, Sub: tags.Subscription()})
	case tmi.UserNoticeSubscriptionGift:
		s.emit(ctx, SubGifted{Notice: msg, Gift: tags.SubGift()})
	case tmi.UserNoticeGiftPaidUpgrade, tmi.UserNoticeAnonymousGiftPaidUpgrade:
		s.emit(ctx, GiftUpgraded{Notice: msg, Upgrade: tags.GiftPaidUpgrade()})
	case tmi.UserNoticeCommunityPayForward, tmi.UserNoticeStandardPayForward:
		s.emit(ctx, SubPaidForward{Notice: msg, Forward: tags.PaidForward()})
	case tmi.UserNoticeRaid:
		s.emit(ctx, Raided{Notice: msg, Raid: tags.Raid()})
	case tmi.UserNoticeRitual:
		s.emit(ctx, RitualStarted{Notice: msg, Ritual: tags.Ritual()})
	case tmi.UserNoticeBitsBadgeTier:
		s.emit(ctx, BitsBadgeEarned{Notice: msg, Tier: tags.BitsBadgeTier()})
	}
}

// authFailed сообщает об отказе во входе. Фаза не меняется: отключение
// остаётся за вызывающим (Client делает это сам), но переподключение с теми
// же учётными данными запрещается.
func (s *Session) authFailed(ctx context.Context, reason string) {
	s.log.Error().Str("user", s.username).Str("reason", reason).Msg("twitch: authentication failed")
	s.rejected = true
	s.emit(ctx, AuthFailed{Reason: reason})
}

// lost обрабатывает потерю соединения не по нашей инициативе. Disconnected
// уходит наблюдателям только если переподключения не будет.
func (s *Session) lost(ctx context.Context, ev Disconnected) {
	s.reset()
	if s.autoReconnect && s.username != "" && !s.rejected {
		s.reconnect(ctx)
		return
	}
	s.emit(ctx, ev)
}

// reconnect закрывает текущий сокет и открывает новый. Каналы, в которых
// сессия состояла, остаются в wanted и будут заново присоединены после входа.
func (s *Session) reconnect(ctx context.Context) {
	if s.transport.Connected() {
		if err := s.transport.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close transport")
		}
	}
	s.reset()

	metrics.RecordReconnect()
	s.phase = PhaseConnecting
	if err := s.transport.Connect(); err != nil {
		s.log.Error().Err(err).Msg("twitch: reconnect")
		s.phase = PhaseDisconnected
		s.emit(ctx, Disconnected{Reason: err.Error()})
	}
}

func (s *Session) reset() {
	s.phase = PhaseDisconnected
	s.joined = nil
	metrics.SetJoinedChannels(0)
}

func (s *Session) send(line string) error {
	if err := s.transport.Send(line); err != nil {
		s.log.Warn().Err(err).Str("line", redact(line)).Msg("twitch: send failed")
		return err
	}
	return nil
}

func (s *Session) emit(ctx context.Context, ev Event) {
	metrics.RecordSessionEvent(ev.Name())
	for _, h := range s.handlers {
		h.HandleEvent(ctx, ev)
	}
}

// splitCommand выделяет имя команды до первого пробельного символа после префикса.
func splitCommand(text, prefix string) (name, params string, ok bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	rest := text[len(prefix):]
	name, params = rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, params = rest[:i], rest[i:]
	}
	return name, params, name != ""
}

func normalizeChannel(ch string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}

func redact(line string) string {
	if strings.HasPrefix(line, "PASS ") {
		return "PASS ***"
	}
	return line
}
