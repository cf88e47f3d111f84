package tmi

import (
	"strings"

	"github.com/rs/zerolog"
)

// Bundle хранит одну строку протокола, разрезанная на части, но ещё без типизации тегов.
type Bundle struct {
	Command    Command
	RawCommand string
	Tags       []string // сырые теги в порядке появления: "key=value" или "key"
	Source     string   // ник (часть до '!') или имя хоста сервера
	Target     string   // канал без ведущего '#', либо пусто
	Params     string   // свободный текст после первого ':' за префиксом
}

// Parser разбирает строки TMI. Состояния не хранит; логгер нужен только для
// диагностики испорченных фрагментов.
type Parser struct {
	log zerolog.Logger
}

// NewParser создаёт парсер, пишущий предупреждения в log.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

var defaultParser = NewParser(zerolog.Nop())

// Split режет строку парсером без логирования.
func Split(line string) Bundle {
	return defaultParser.Split(line)
}

// Split режет одну строку (без завершающего CRLF) на части.
// Пустая строка даёт пустой Bundle с CommandUnknown.
func (p *Parser) Split(line string) Bundle {
	var b Bundle
	if line == "" {
		return b
	}

	cursor := 0

	if line[0] == '@' {
		end := strings.IndexByte(line, ' ')
		if end < 0 {
			end = len(line)
		}
		b.Tags = splitNonEmpty(line[1:end], ";")
		cursor = min(end+1, len(line))
	}

	if cursor < len(line) && line[cursor] == ':' {
		end := strings.IndexByte(line[cursor:], ' ')
		if end < 0 {
			end = len(line)
		} else {
			end += cursor
		}
		b.Source = parseSource(line[cursor+1 : end])
		cursor = min(end+1, len(line))
	}

	rest := line[cursor:]
	head := rest
	if at := strings.IndexByte(rest, ':'); at >= 0 {
		head = rest[:at]
		b.Params = rest[at+1:]
	}

	head = strings.TrimRight(head, " \t")
	if sp := strings.IndexByte(head, ' '); sp >= 0 {
		b.Target = strings.TrimPrefix(head[sp+1:], "#")
		head = head[:sp]
	}
	b.RawCommand = head
	b.Command = p.lookupCommand(head)

	return b
}

func (p *Parser) lookupCommand(token string) Command {
	cmd, ignored := LookupCommand(token)
	if cmd == CommandUnknown && !ignored && token != "" {
		p.log.Warn().Str("command", token).Msg("unknown irc command")
	}
	return cmd
}

func parseSource(s string) string {
	if nick, _, ok := strings.Cut(s, "!"); ok {
		return nick
	}
	return s
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
