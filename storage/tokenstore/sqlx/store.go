package sqlxstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/storage/database"
)

// store keeps the token in the session_token table, one row per storage key.
type store struct {
	db  *sqlx.DB
	key string
}

var _ session.TokenStore = (*store)(nil)

func NewTokenStore(db *sqlx.DB, key string) session.TokenStore {
	return &store{db: db, key: key}
}

func (s *store) Get(ctx context.Context) (string, error) {
	var token string
	q := s.db.Rebind(`SELECT token FROM session_token WHERE storage_key = ?`)
	if err := s.db.GetContext(ctx, &token, q, s.key); err != nil {
		if err == sql.ErrNoRows {
			return "", session.ErrNoToken
		}
		return "", errors.Wrap(err, "selecting token")
	}
	if token == "" {
		return "", session.ErrNoToken
	}
	return token, nil
}

func (s *store) Set(ctx context.Context, token string) error {
	var q string
	switch s.db.DriverName() {
	case database.EngineMySQL:
		q = `INSERT INTO session_token (storage_key, token, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE token = VALUES(token), updated_at = VALUES(updated_at)`
	default:
		q = `INSERT INTO session_token (storage_key, token, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (storage_key) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(q), s.key, token, time.Now().UTC())
	return errors.Wrap(err, "upserting token")
}

func (s *store) Clear(ctx context.Context) error {
	q := s.db.Rebind(`DELETE FROM session_token WHERE storage_key = ?`)
	_, err := s.db.ExecContext(ctx, q, s.key)
	return errors.Wrap(err, "deleting token")
}
