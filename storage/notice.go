package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"tmi-chatter/model"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertNotice = `
insert into channel_notices (
  channel, kind, msg_id, message, system_msg, tags, notice_at
) values ($1, $2, $3, $4, $5, $6, $7);
`

// SaveNotice сохраняет notice-событие в базе с учётом заданного таймаута.
// db: *pgxpool.Pool или любая реализация Exec.
func SaveNotice(ctx context.Context, db execer, notice model.Notice, timeout time.Duration) error {
	dbCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tagsJSON, err := json.Marshal(notice.Tags)
	if err != nil {
		return fmt.Errorf("storage: marshal notice tags: %w", err)
	}

	if _, err := db.Exec(dbCtx, insertNotice,
		notice.Channel, notice.Kind, notice.ID, notice.Message, nullable(notice.SystemMsg), tagsJSON, notice.NoticeAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage: insert notice: %w", err)
	}
	return nil
}
