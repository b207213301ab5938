package handler

import (
	"devmatch/internal/delivery/http/dto"
	"devmatch/internal/delivery/http/middleware"
	"devmatch/internal/domain/user"
	"devmatch/internal/pkg/response"
	"devmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type UserHandler struct {
	uc usecase.UserUsecase
}

func NewUserHandler(uc usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/users")
	grp.Get("/me", h.GetMe)
	grp.Put("/me", h.UpdateMe)
	grp.Post("/me/github/sync", h.SyncGitHub)
	grp.Get("/", h.Search)
	grp.Get("/:id", h.Get)
}

func (h *UserHandler) GetMe(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	u, err := h.uc.GetMe(c.Context(), userID)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserResponse(u))
}

func (h *UserHandler) UpdateMe(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	u, err := h.uc.UpdateMe(c.Context(), userID, req.Input())
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, "Profile updated", dto.NewUserResponse(u))
}

func (h *UserHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserResponse(u))
}

func (h *UserHandler) Search(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return err
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return err
	}
	skillIDs, err := parseIDsQuery(c, "skillIds")
	if err != nil {
		return err
	}

	users, err := h.uc.Search(c.Context(), user.DirectoryFilter{
		Search:   c.Query("search"),
		SkillIDs: skillIDs,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserList(users))
}

func (h *UserHandler) SyncGitHub(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	res, err := h.uc.SyncGitHub(c.Context(), userID)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, "GitHub skills synced", res)
}
