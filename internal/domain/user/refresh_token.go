package user

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/domain"

	"github.com/google/uuid"
)

var ErrRefreshTokenNotFound = fmt.Errorf("refresh token %w", domain.ErrNotFound)

// RefreshToken records the one refresh token of a user that may still be
// exchanged. TokenID is the jti claim of the signed token.
type RefreshToken struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Matches reports whether tokenID is the live token at now.
func (t RefreshToken) Matches(tokenID string, now time.Time) bool {
	return tokenID != "" && t.TokenID == tokenID && now.Before(t.ExpiresAt)
}

type RefreshTokenRepository interface {
	// Save replaces the user's refresh token.
	Save(ctx context.Context, t RefreshToken) error
	GetByUser(ctx context.Context, userID uuid.UUID) (RefreshToken, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
