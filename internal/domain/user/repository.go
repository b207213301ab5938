package user

import (
	"context"
	"fmt"

	"devmatch/internal/domain"

	"github.com/google/uuid"
)

var ErrNotFound = fmt.Errorf("user %w", domain.ErrNotFound)

type Repository interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByProvider(ctx context.Context, provider, providerID string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) error
	AddSkills(ctx context.Context, id uuid.UUID, skillIDs []uuid.UUID) (int, error)
	Search(ctx context.Context, f DirectoryFilter) ([]User, error)
}
