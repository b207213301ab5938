package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/match"
	"devmatch/internal/infrastructure/gemini"

	"github.com/google/uuid"
)

// Cache is the best-effort key value store behind the match endpoints. It is
// implemented by cache.Redis.
type Cache interface {
	Available() bool
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}

// Notifier pushes match events to a user. It is implemented by ws.Hub.
type Notifier interface {
	NotifyMatch(userID uuid.UUID, eventType string, m match.Match)
}

// Explainer turns the computed explanation into prose.
type Explainer interface {
	Explain(ctx context.Context, requester, candidate gemini.Party, score float64, computed string) string
}

type noopNotifier struct{}

func (noopNotifier) NotifyMatch(uuid.UUID, string, match.Match) {}

// deadline maps context expiry coming out of a repository to ErrTimeout.
func deadline(err error) error {
	if err == nil || errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}
