package usecase

import (
	"context"

	"devmatch/internal/domain/user"
	ucuser "devmatch/internal/usecase/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserUsecase interface {
	GetMe(ctx context.Context, userID uuid.UUID) (user.User, error)
	Get(ctx context.Context, userID uuid.UUID) (user.User, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, in ucuser.UpdateProfileInput) (user.User, error)
	Search(ctx context.Context, f user.DirectoryFilter) ([]user.User, error)
	SyncGitHub(ctx context.Context, userID uuid.UUID) (ucuser.GitHubSyncResult, error)
}

type User struct {
	svc    *ucuser.Service
	cache  Cache
	logger *zap.Logger
}

func NewUserUsecase(users user.Repository, skills ucuser.SkillCatalog, importer ucuser.LanguageImporter, c Cache, logger *zap.Logger) *User {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &User{svc: ucuser.NewService(users, skills, importer), cache: c, logger: logger.Named("users")}
}

func (u *User) GetMe(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := u.svc.Get(ctx, userID)
	return usr, deadline(err)
}

func (u *User) Get(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := u.svc.Get(ctx, userID)
	if err != nil {
		return user.User{}, deadline(err)
	}
	usr.Email = ""
	return usr, nil
}

// UpdateMe changes the profile and drops every cached result that used it.
func (u *User) UpdateMe(ctx context.Context, userID uuid.UUID, in ucuser.UpdateProfileInput) (user.User, error) {
	usr, err := u.svc.UpdateProfile(ctx, userID, in)
	if err != nil {
		return user.User{}, deadline(err)
	}
	InvalidateProfile(ctx, u.cache, u.logger, userID)
	return usr, nil
}

func (u *User) Search(ctx context.Context, f user.DirectoryFilter) ([]user.User, error) {
	users, err := u.svc.Search(ctx, f)
	if err != nil {
		return nil, deadline(err)
	}
	for i := range users {
		users[i].Email = ""
	}
	return users, nil
}

func (u *User) SyncGitHub(ctx context.Context, userID uuid.UUID) (ucuser.GitHubSyncResult, error) {
	res, err := u.svc.SyncGitHub(ctx, userID)
	if err != nil {
		return ucuser.GitHubSyncResult{}, deadline(err)
	}
	if len(res.Added) > 0 {
		InvalidateProfile(ctx, u.cache, u.logger, userID)
	}
	u.logger.Info("github skills synced",
		zap.String("user_id", userID.String()),
		zap.Int("languages", len(res.Languages)),
		zap.Int("added", len(res.Added)),
	)
	return res, nil
}
