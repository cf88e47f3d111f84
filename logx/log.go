// Package logx настраивает zerolog для бинарников проекта.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Configure выставляет глобальный уровень логирования.
func Configure(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// New создаёт логгер в stderr. format "text" (или "console") даёт
// человекочитаемый вывод, всё остальное даёт JSON.
func New(level, format string) zerolog.Logger {
	Configure(level)
	return NewWithWriter(os.Stderr, format)
}

func NewWithWriter(w io.Writer, format string) zerolog.Logger {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// parseLevel терпим к регистру и синонимам; неизвестное значение считается info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "all", "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
