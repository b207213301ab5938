package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/user"
	"devmatch/internal/pkg/jwt"
	ucauth "devmatch/internal/usecase/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidRefreshToken = fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	ErrRefreshTokenExpired = fmt.Errorf("%w: refresh token expired", domain.ErrUnauthorized)
	ErrRefreshTokenRevoked = fmt.Errorf("%w: refresh token revoked", domain.ErrUnauthorized)
)

// Session is what a successful sign-in returns.
type Session struct {
	User   user.User
	Tokens jwt.TokenPair
}

type AuthUsecase interface {
	Register(ctx context.Context, in ucauth.RegisterInput) (Session, error)
	Login(ctx context.Context, in ucauth.LoginInput) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, error)
	Sync(ctx context.Context, in ucauth.SyncInput) (Session, bool, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// Auth issues token pairs and remembers the one refresh token per user that
// may still be exchanged, so signing in again or logging out revokes the
// previous one.
type Auth struct {
	authSvc *ucauth.Service
	users   user.Repository
	tokens  user.RefreshTokenRepository
	jwt     jwt.Service
	cache   Cache
	logger  *zap.Logger
	now     func() time.Time
}

func NewAuthUsecase(users user.Repository, tokens user.RefreshTokenRepository, jwtSvc jwt.Service, c Cache, logger *zap.Logger) *Auth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auth{
		authSvc: ucauth.NewService(users),
		users:   users,
		tokens:  tokens,
		jwt:     jwtSvc,
		cache:   c,
		logger:  logger.Named("auth"),
		now:     time.Now,
	}
}

func (u *Auth) Register(ctx context.Context, in ucauth.RegisterInput) (Session, error) {
	usr, err := u.authSvc.Register(ctx, in)
	if err != nil {
		return Session{}, deadline(err)
	}
	InvalidateProfile(ctx, u.cache, u.logger, usr.ID)
	u.logger.Info("user registered", zap.String("user_id", usr.ID.String()))
	return u.session(ctx, usr)
}

func (u *Auth) Login(ctx context.Context, in ucauth.LoginInput) (Session, error) {
	usr, err := u.authSvc.Login(ctx, in)
	if err != nil {
		return Session{}, deadline(err)
	}
	return u.session(ctx, usr)
}

func (u *Auth) Sync(ctx context.Context, in ucauth.SyncInput) (Session, bool, error) {
	usr, created, err := u.authSvc.Sync(ctx, in)
	if err != nil {
		return Session{}, false, deadline(err)
	}
	if created {
		InvalidateProfile(ctx, u.cache, u.logger, usr.ID)
		u.logger.Info("user synced from provider", zap.String("user_id", usr.ID.String()), zap.String("provider", usr.AuthProvider))
	}
	s, err := u.session(ctx, usr)
	return s, created, err
}

// Refresh exchanges the live refresh token for a new pair. The presented token
// stops working afterwards.
func (u *Auth) Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, error) {
	if refreshToken == "" {
		return jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	claims, err := u.jwt.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwt.TokenPair{}, ErrRefreshTokenExpired
		}
		return jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	stored, err := u.tokens.GetByUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return jwt.TokenPair{}, ErrRefreshTokenRevoked
		}
		return jwt.TokenPair{}, deadline(err)
	}
	if !stored.Matches(claims.ID, u.now()) {
		return jwt.TokenPair{}, ErrRefreshTokenRevoked
	}

	usr, err := u.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return jwt.TokenPair{}, ErrInvalidRefreshToken
		}
		return jwt.TokenPair{}, deadline(err)
	}
	if !usr.Active {
		return jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	s, err := u.session(ctx, usr)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	return s.Tokens, nil
}

// Logout revokes the user's refresh token. Access tokens stay valid until
// they expire.
func (u *Auth) Logout(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	if err := u.tokens.DeleteByUser(ctx, userID); err != nil {
		return deadline(err)
	}
	u.logger.Info("user logged out", zap.String("user_id", userID.String()))
	return nil
}

func (u *Auth) session(ctx context.Context, usr user.User) (Session, error) {
	pair, err := u.jwt.IssuePair(usr.ID, usr.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	claims, err := u.jwt.ParseRefresh(pair.RefreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("read issued refresh token: %w", err)
	}
	err = u.tokens.Save(ctx, user.RefreshToken{
		UserID:    usr.ID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: u.now().UTC(),
	})
	if err != nil {
		return Session{}, deadline(err)
	}
	return Session{User: usr, Tokens: pair}, nil
}
