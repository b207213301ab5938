package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyRegistered = fmt.Errorf("%w: email already registered", domain.ErrConflict)
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
}

// SyncInput is an identity already verified by the external provider.
type SyncInput struct {
	Provider       string
	ProviderID     string
	Email          string
	FullName       string
	ProfilePicture string
}

// Service owns credentials. It never issues tokens.
type Service struct {
	users user.Repository
	cost  int
	now   func() time.Time
}

func NewService(users user.Repository) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return user.User{}, err
	}
	if len(strings.TrimSpace(in.Password)) < minPasswordLength {
		return user.User{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, minPasswordLength)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if exists {
		return user.User{}, ErrEmailAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		AuthProvider: user.ProviderLocal,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return user.User{}, ErrEmailAlreadyRegistered
		}
		return user.User{}, err
	}

	created, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}
	return created.Sanitized(), nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (user.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil || in.Password == "" {
		return user.User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, err
	}
	if u.PasswordHash == "" || !u.Active {
		return user.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	return u.Sanitized(), nil
}

// Sync finds the user by provider identity, then by email, and creates it when
// neither exists.
func (s *Service) Sync(ctx context.Context, in SyncInput) (user.User, bool, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	providerID := strings.TrimSpace(in.ProviderID)
	if provider == "" || providerID == "" {
		return user.User{}, false, fmt.Errorf("%w: provider and providerId are required", domain.ErrInvalidArgument)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return user.User{}, false, err
	}

	u, err := s.users.GetUserByProvider(ctx, provider, providerID)
	if err == nil {
		return u.Sanitized(), false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return user.User{}, false, err
	}

	u, err = s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return u.Sanitized(), false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return user.User{}, false, err
	}

	now := s.now().UTC()
	u = user.User{
		ID:             uuid.New(),
		Email:          email,
		FullName:       strings.TrimSpace(in.FullName),
		ProfilePicture: strings.TrimSpace(in.ProfilePicture),
		AuthProvider:   provider,
		ProviderID:     providerID,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return user.User{}, false, err
	}
	created, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return user.User{}, false, err
	}
	return created.Sanitized(), true, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidArgument)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidArgument)
	}
	return email, nil
}
