package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tmi-chatter/auth"
	"tmi-chatter/config"
	"tmi-chatter/logx"
	"tmi-chatter/metrics"
	"tmi-chatter/service"
	"tmi-chatter/storage"
	"tmi-chatter/tokens"
	"tmi-chatter/twitch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.New("info", "json").Fatal().Err(err).Msg("config load failed")
	}

	log := logx.New(cfg.Log.Level, cfg.Log.Format).Hook(metrics.WarnHook{})
	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	password, err := resolvePassword(ctx, cfg.Twitch, log)
	if err != nil {
		log.Fatal().Err(err).Msg("twitch token")
	}
	cfg.Twitch.OAuthToken = password

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("pgxpool.New")
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema")
	}

	batcher := storage.NewBatcher(ctx, pool, storage.BatchConfig{
		MaxBatch:      cfg.Batch.MaxBatch,
		FlushEvery:    cfg.Batch.FlushEvery,
		ChanBuffer:    cfg.Batch.ChanBuffer,
		StatsLogEvery: cfg.Batch.StatsLogEvery,
		FlushTimeout:  cfg.Batch.FlushTimeout,
	}, log)

	handler := service.NewHandler(batcher, pool, cfg.Batch.FlushTimeout, log)
	client := twitch.NewClient(cfg.Twitch, log, handler)
	srv := service.New(client, log, cfg.Twitch.CommandReply)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           service.NewRouter(client, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", cfg.HTTP.Addr).Msg("http server")
		}
	}()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("service run failed")
		shutdown(httpSrv, log)
		os.Exit(1)
	}

	log.Info().Msg("shutting down...")
	shutdown(httpSrv, log)
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

// resolvePassword берёт токен из TWITCH_OAUTH_TOKEN, а если он не задан,
// из TWITCH_TOKEN_FILE с обновлением через refresh-токен.
func resolvePassword(ctx context.Context, cfg config.TwitchConfig, log zerolog.Logger) (string, error) {
	if cfg.OAuthToken != "" {
		return cfg.OAuthToken, nil
	}

	var refresh tokens.RefreshFunc
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		refresh = func(ctx context.Context, refreshToken string) (tokens.Token, error) {
			tok, err := auth.RefreshToken(ctx, cfg.ClientID, cfg.ClientSecret, refreshToken)
			if err != nil {
				return tokens.Token{}, err
			}
			return tokens.Token{Access: tok.AccessToken, Refresh: tok.RefreshToken, ExpiresAt: tok.Expiry}, nil
		}
	}

	manager := tokens.NewManager(tokens.FileTokenStore{Path: cfg.TokenFile}, refresh)
	tok, err := manager.Get(ctx)
	if err != nil {
		return "", err
	}

	v, err := auth.ValidateToken(ctx, nil, tok.Access)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return "", err
	case err != nil:
		log.Warn().Err(err).Msg("не удалось проверить токен, продолжаем")
	case v.Login != "" && !strings.EqualFold(v.Login, cfg.Username):
		log.Warn().Str("token_login", v.Login).Str("username", cfg.Username).Msg("токен выдан другому пользователю")
	}

	return tok.Password(), nil
}
