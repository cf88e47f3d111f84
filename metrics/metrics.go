// Package metrics содержит Prometheus-метрики разбора и сессии.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmi_frames_total",
			Help: "Received TMI lines by command",
		},
		[]string{"command"},
	)

	decodeWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmi_decode_warnings_total",
			Help: "Warnings logged while decoding lines and tags",
		},
		[]string{"message"},
	)

	sessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmi_session_events_total",
			Help: "Session events delivered to handlers",
		},
		[]string{"event"},
	)

	reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tmi_reconnects_total",
			Help: "Reconnects started by the session",
		},
	)

	joinedChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tmi_joined_channels",
			Help: "Channels the session is currently a member of",
		},
	)

	batcherDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_batcher_dropped_total",
			Help: "Chat messages dropped because the batcher queue was full",
		},
	)
)

// Register регистрирует все коллекторы пакета. Вызывается один раз на процесс.
func Register(r prometheus.Registerer) {
	r.MustRegister(framesTotal, decodeWarnings, sessionEvents, reconnects, joinedChannels, batcherDropped)
}

func RecordFrame(command string) { framesTotal.WithLabelValues(command).Inc() }

func RecordSessionEvent(event string) { sessionEvents.WithLabelValues(event).Inc() }

func RecordReconnect() { reconnects.Inc() }

func SetJoinedChannels(n int) { joinedChannels.Set(float64(n)) }

func RecordBatcherDrop() { batcherDropped.Inc() }

// WarnHook считает предупреждения логгера по тексту сообщения. Тексты
// предупреждений парсера фиксированы, поэтому кардинальность метки ограничена.
type WarnHook struct{}

func (WarnHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.WarnLevel {
		decodeWarnings.WithLabelValues(msg).Inc()
	}
}
