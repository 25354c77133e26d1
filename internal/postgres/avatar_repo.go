package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/room-chat/internal/avatar"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const avatarSchema = `
	CREATE TABLE IF NOT EXISTS avatars (
		id           TEXT PRIMARY KEY,
		content_type TEXT        NOT NULL,
		data         BYTEA       NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// AvatarRepository implements avatar.Store on top of a single table.
type AvatarRepository struct {
	db *pgxpool.Pool
}

func NewAvatarRepository(db *pgxpool.Pool) *AvatarRepository {
	return &AvatarRepository{db: db}
}

func (r *AvatarRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, avatarSchema)
	return err
}

// Put is idempotent: ids are content hashes, a repeat upload changes nothing.
func (r *AvatarRepository) Put(ctx context.Context, b avatar.Blob) error {
	query := `
		INSERT INTO avatars (id, content_type, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, b.ID, b.ContentType, b.Data)
	return err
}

func (r *AvatarRepository) Get(ctx context.Context, id string) (avatar.Blob, error) {
	b := avatar.Blob{ID: id}
	err := r.db.QueryRow(ctx, `SELECT content_type, data FROM avatars WHERE id=$1`, id).
		Scan(&b.ContentType, &b.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return avatar.Blob{}, avatar.ErrNotFound
		}
		return avatar.Blob{}, err
	}
	return b, nil
}
