package handler

import (
	"errors"

	"devmatch/internal/delivery/http/dto"
	"devmatch/internal/delivery/http/middleware"
	"devmatch/internal/pkg/response"
	"devmatch/internal/usecase"
	ucauth "devmatch/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
)

type AuthHandler struct {
	uc         usecase.AuthUsecase
	syncSecret string
}

func NewAuthHandler(uc usecase.AuthUsecase, syncSecret string) *AuthHandler {
	return &AuthHandler{uc: uc, syncSecret: syncSecret}
}

// RegisterRoutes mounts the auth group. requireAuth guards logout only.
func (h *AuthHandler) RegisterRoutes(r fiber.Router, requireAuth fiber.Handler) {
	if r == nil {
		return
	}

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", requireAuth, h.Logout)
	r.Post("/sync", middleware.SyncSecret(h.syncSecret), h.Sync)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	s, err := h.uc.Register(c.Context(), ucauth.RegisterInput{Email: req.Email, Password: req.Password, FullName: req.FullName})
	if err != nil {
		return mapAuthUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, "Registered", dto.NewSessionResponse(s))
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	s, err := h.uc.Login(c.Context(), ucauth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return mapAuthUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSessionResponse(s))
}

func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, ok := middleware.BearerToken(c.Get("Authorization"))
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	pair, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRefreshTokenExpired):
			return middleware.NewAppError(fiber.StatusUnauthorized, "Refresh token expired", nil, err)
		case errors.Is(err, usecase.ErrInvalidRefreshToken):
			return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid refresh token", nil, err)
		case errors.Is(err, usecase.ErrRefreshTokenRevoked):
			return middleware.NewAppError(fiber.StatusUnauthorized, "Refresh token revoked", nil, err)
		}
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, pair)
}

// Logout revokes the caller's refresh token. Access tokens stay valid until
// they expire.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Logout(c.Context(), userID); err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) Sync(c fiber.Ctx) error {
	var req dto.SyncRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	s, created, err := h.uc.Sync(c.Context(), ucauth.SyncInput{
		Provider:       req.Provider,
		ProviderID:     req.ProviderID,
		Email:          req.Email,
		FullName:       req.FullName,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return middleware.FromDomain(err)
	}
	out := dto.NewSessionResponse(s)
	out.Created = &created
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, "", out)
}

func mapAuthUsecaseError(err error) error {
	switch {
	case errors.Is(err, ucauth.ErrEmailAlreadyRegistered):
		return middleware.NewAppError(fiber.StatusConflict, "Email already registered", nil, err)
	case errors.Is(err, ucauth.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid email or password", nil, err)
	default:
		return middleware.FromDomain(err)
	}
}
