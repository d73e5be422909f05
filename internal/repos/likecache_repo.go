package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// LikeCacheRepo stores serialized like-cache records in sqlite, one row per
// namespace key.
type LikeCacheRepo struct{ db *sqlx.DB }

func NewLikeCacheRepo(db *sqlx.DB) *LikeCacheRepo { return &LikeCacheRepo{db: db} }

// Load returns the stored payload, or ok=false when nothing is stored.
func (r *LikeCacheRepo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM like_cache WHERE key=?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(payload), true, nil
}

func (r *LikeCacheRepo) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO like_cache(key, payload, updated_at)
	  VALUES(?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, updated_at=CURRENT_TIMESTAMP
	`, key, string(payload))
	return err
}

func (r *LikeCacheRepo) Remove(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM like_cache WHERE key=?`, key)
	return err
}
