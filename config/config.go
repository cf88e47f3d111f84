package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config агрегирует значения конфигурации из переменных окружения.
type Config struct {
	Twitch   TwitchConfig
	Postgres PostgresConfig
	Batch    BatchConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

// TwitchConfig содержит учётные данные, каналы и параметры сессии TMI.
type TwitchConfig struct {
	Username             string
	OAuthToken           string
	TokenFile            string // используется, если OAuthToken не задан
	ClientID             string // нужен для обновления токена из TokenFile
	ClientSecret         string
	Channels             []string
	FastMode             bool
	AutoReconnect        bool
	CommandPrefix        string
	CommandReply         bool // отвечать "pong" на !ping
	MaxReconnectInterval time.Duration
	ServerURL            string
}

// PostgresConfig хранит параметры подключения к пулу базы данных.
type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
}

// DSN собирает строку подключения для pgx/pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

// BatchConfig задаёт параметры батчинга и флашей при записи чатов.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	Addr string
}

// Load подхватывает необязательный .env, читает переменные окружения и
// возвращает валидированную Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("чтение .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Twitch: TwitchConfig{
			Username:             str(v, "twitch_username"),
			OAuthToken:           str(v, "twitch_oauth_token"),
			TokenFile:            str(v, "twitch_token_file"),
			ClientID:             str(v, "twitch_client_id"),
			ClientSecret:         str(v, "twitch_client_secret"),
			Channels:             splitAndTrim(v.GetString("twitch_channels")),
			FastMode:             v.GetBool("twitch_fast_mode"),
			AutoReconnect:        v.GetBool("twitch_auto_reconnect"),
			CommandPrefix:        str(v, "twitch_command_prefix"),
			CommandReply:         v.GetBool("twitch_command_reply"),
			MaxReconnectInterval: v.GetDuration("twitch_max_reconnect_interval"),
			ServerURL:            str(v, "twitch_server_url"),
		},
		Postgres: PostgresConfig{
			Host:     str(v, "postgres_host"),
			Port:     str(v, "postgres_port"),
			DB:       str(v, "postgres_db"),
			User:     str(v, "postgres_user"),
			Password: str(v, "postgres_password"),
		},
		Batch: BatchConfig{
			MaxBatch:      v.GetInt("batch_max"),
			FlushEvery:    v.GetDuration("batch_flush_every"),
			ChanBuffer:    v.GetInt("batch_chan_buffer"),
			StatsLogEvery: v.GetDuration("batch_stats_log_every"),
			FlushTimeout:  v.GetDuration("batch_flush_timeout"),
		},
		Log: LogConfig{
			Level:  str(v, "log_level"),
			Format: str(v, "log_format"),
		},
		HTTP: HTTPConfig{
			Addr: str(v, "http_addr"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("twitch_auto_reconnect", true)
	v.SetDefault("twitch_command_prefix", "!")
	v.SetDefault("twitch_max_reconnect_interval", time.Minute)
	v.SetDefault("twitch_server_url", "wss://irc-ws.chat.twitch.tv:443")

	v.SetDefault("batch_max", 100)
	v.SetDefault("batch_flush_every", 1500*time.Millisecond)
	v.SetDefault("batch_chan_buffer", 4096)
	v.SetDefault("batch_stats_log_every", 5*time.Minute)
	v.SetDefault("batch_flush_timeout", 5*time.Second)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("http_addr", ":9090")
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func (c Config) validate() error {
	if c.Twitch.Username == "" {
		return fmt.Errorf("требуется TWITCH_USERNAME")
	}
	if c.Twitch.OAuthToken == "" && c.Twitch.TokenFile == "" {
		return fmt.Errorf("требуется TWITCH_OAUTH_TOKEN или TWITCH_TOKEN_FILE")
	}
	if len(c.Twitch.Channels) == 0 {
		return fmt.Errorf("требуется TWITCH_CHANNELS")
	}
	if c.Twitch.MaxReconnectInterval <= 0 {
		return fmt.Errorf("TWITCH_MAX_RECONNECT_INTERVAL должен быть больше нуля")
	}

	if c.Postgres.Host == "" {
		return fmt.Errorf("требуется POSTGRES_HOST")
	}
	if c.Postgres.Port == "" {
		return fmt.Errorf("требуется POSTGRES_PORT")
	}
	if c.Postgres.DB == "" {
		return fmt.Errorf("требуется POSTGRES_DB")
	}
	if c.Postgres.User == "" {
		return fmt.Errorf("требуется POSTGRES_USER")
	}
	if c.Postgres.Password == "" {
		return fmt.Errorf("требуется POSTGRES_PASSWORD")
	}

	if c.Batch.MaxBatch <= 0 {
		return fmt.Errorf("Batch.MaxBatch должен быть больше нуля")
	}
	if c.Batch.FlushEvery <= 0 {
		return fmt.Errorf("Batch.FlushEvery должен быть больше нуля")
	}
	if c.Batch.ChanBuffer <= 0 {
		return fmt.Errorf("Batch.ChanBuffer должен быть больше нуля")
	}
	if c.Batch.StatsLogEvery <= 0 {
		return fmt.Errorf("Batch.StatsLogEvery должен быть больше нуля")
	}
	if c.Batch.FlushTimeout <= 0 {
		return fmt.Errorf("Batch.FlushTimeout должен быть больше нуля")
	}

	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "#")))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
