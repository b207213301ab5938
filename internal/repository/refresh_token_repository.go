package repository

import (
	"context"

	"devmatch/internal/database"
	"devmatch/internal/database/postgres"
	"devmatch/internal/domain/user"

	"github.com/google/uuid"
)

type PostgresRefreshTokenRepository struct {
	db database.DB
}

func NewPostgresRefreshTokenRepository(db database.DB) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{db: db}
}

func (r *PostgresRefreshTokenRepository) Save(ctx context.Context, t user.RefreshToken) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET token_id = EXCLUDED.token_id, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		t.UserID, t.TokenID, t.ExpiresAt.UTC(), t.CreatedAt.UTC(),
	)
	return mapError(err)
}

func (r *PostgresRefreshTokenRepository) GetByUser(ctx context.Context, userID uuid.UUID) (user.RefreshToken, error) {
	var t user.RefreshToken
	err := r.db.QueryRow(ctx,
		`SELECT user_id, token_id, expires_at, created_at FROM refresh_tokens WHERE user_id = $1`,
		userID,
	).Scan(&t.UserID, &t.TokenID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return user.RefreshToken{}, user.ErrRefreshTokenNotFound
		}
		return user.RefreshToken{}, mapError(err)
	}
	return t, nil
}

func (r *PostgresRefreshTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return mapError(err)
}
