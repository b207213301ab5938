package handler

import (
	"context"

	"devmatch/internal/delivery/http/dto"
	"devmatch/internal/delivery/http/middleware"
	"devmatch/internal/domain/project"
	"devmatch/internal/pkg/response"
	"devmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	uc usecase.ProjectUsecase
}

func NewProjectHandler(uc usecase.ProjectUsecase) *ProjectHandler {
	return &ProjectHandler{uc: uc}
}

func (h *ProjectHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/projects")
	grp.Post("/", h.Create)
	grp.Get("/open", h.ListOpen)
	grp.Get("/accepting-members", h.ListAcceptingMembers)
	grp.Get("/user/:userId", h.ListByCreator)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Post("/:id/members/:memberId", h.AddMember)
	grp.Delete("/:id/members/:memberId", h.RemoveMember)
}

func (h *ProjectHandler) Create(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	p, err := h.uc.Create(c.Context(), userID, req.Input())
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusCreated, "Project created", p)
}

func (h *ProjectHandler) ListOpen(c fiber.Ctx) error {
	return h.page(c, h.uc.ListOpen)
}

func (h *ProjectHandler) ListAcceptingMembers(c fiber.Ctx) error {
	return h.page(c, h.uc.ListAcceptingMembers)
}

func (h *ProjectHandler) page(c fiber.Ctx, list func(ctx context.Context, limit, offset int) ([]project.Project, error)) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return err
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return err
	}
	items, err := list(c.Context(), limit, offset)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}

func (h *ProjectHandler) ListByCreator(c fiber.Ctx) error {
	creatorID, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	items, err := h.uc.ListByCreator(c.Context(), creatorID)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}

func (h *ProjectHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, p)
}

func (h *ProjectHandler) Update(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateProjectRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	p, err := h.uc.Update(c.Context(), userID, id, req.Input())
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, "Project updated", p)
}

func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.Context(), userID, id); err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, "Project deleted", nil)
}

func (h *ProjectHandler) AddMember(c fiber.Ctx) error {
	return h.member(c, fiber.StatusCreated, "Team member added", h.uc.AddMember)
}

func (h *ProjectHandler) RemoveMember(c fiber.Ctx) error {
	return h.member(c, fiber.StatusOK, "Team member removed", h.uc.RemoveMember)
}

func (h *ProjectHandler) member(c fiber.Ctx, status int, msg string, op func(ctx context.Context, actorID, projectID, memberID uuid.UUID) (project.Project, error)) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := paramUUID(c, "memberId")
	if err != nil {
		return err
	}
	p, err := op(c.Context(), userID, id, memberID)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, status, msg, p)
}
