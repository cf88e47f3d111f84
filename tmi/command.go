// Package tmi разбирает строки протокола Twitch Messaging Interface (IRCv3 с тегами)
// в типизированные сообщения.
//
// Разбор идёт в три шага: Split режет строку на части (Bundle), DecodeTags
// превращает сырые теги в Tags, а конструкторы сообщений (NewPrivMsg и т.д.)
// выбирают из Tags поля, осмысленные для конкретной команды. Ни один шаг не
// возвращает ошибок: испорченные фрагменты превращаются в значения по умолчанию
// и предупреждение в логе.
package tmi

// Command перечисляет закрытый набор команд TMI, которые понимает парсер.
type Command uint8

const (
	CommandUnknown Command = iota
	CommandPrivmsg
	CommandJoin
	CommandPart
	CommandPing
	CommandNotice
	CommandClearChat
	CommandClearMsg
	CommandGlobalUserState
	CommandHostTarget
	CommandReconnect
	CommandRoomState
	CommandUserNotice
	CommandUserState
	CommandWhisper
	CommandCap
)

var commandNames = map[Command]string{
	CommandUnknown:         "UNKNOWN",
	CommandPrivmsg:         "PRIVMSG",
	CommandJoin:            "JOIN",
	CommandPart:            "PART",
	CommandPing:            "PING",
	CommandNotice:          "NOTICE",
	CommandClearChat:       "CLEARCHAT",
	CommandClearMsg:        "CLEARMSG",
	CommandGlobalUserState: "GLOBALUSERSTATE",
	CommandHostTarget:      "HOSTTARGET",
	CommandReconnect:       "RECONNECT",
	CommandRoomState:       "ROOMSTATE",
	CommandUserNotice:      "USERNOTICE",
	CommandUserState:       "USERSTATE",
	CommandWhisper:         "WHISPER",
	CommandCap:             "CAP",
}

// commandTable строится один раз из commandNames и больше не меняется.
var commandTable = func() map[string]Command {
	table := make(map[string]Command, len(commandNames))
	for cmd, name := range commandNames {
		if cmd == CommandUnknown {
			continue
		}
		table[name] = cmd
	}
	return table
}()

// Числовые ответы IRC (приветствие, MOTD, NAMES), которые приходят при входе
// и не несут ничего полезного.
var ignoredCommands = map[string]struct{}{
	"001": {},
	"002": {},
	"003": {},
	"004": {},
	"353": {},
	"366": {},
	"372": {},
	"375": {},
	"376": {},
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return commandNames[CommandUnknown]
}

// LookupCommand ищет токен команды в таблице (с учётом регистра).
// Второе значение сообщает, входит ли токен в список молча игнорируемых.
func LookupCommand(token string) (cmd Command, ignored bool) {
	if cmd, ok := commandTable[token]; ok {
		return cmd, false
	}
	_, ignored = ignoredCommands[token]
	return CommandUnknown, ignored
}
