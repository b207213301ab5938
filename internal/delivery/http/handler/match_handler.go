package handler

import (
	"context"

	"devmatch/internal/delivery/http/dto"
	"devmatch/internal/delivery/http/middleware"
	"devmatch/internal/domain/match"
	"devmatch/internal/domain/matching"
	"devmatch/internal/pkg/response"
	"devmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matching usecase.MatchingUsecase
	matches  usecase.MatchUsecase
}

func NewMatchHandler(matchingUC usecase.MatchingUsecase, matchUC usecase.MatchUsecase) *MatchHandler {
	return &MatchHandler{matching: matchingUC, matches: matchUC}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matches")
	grp.Post("/find", h.Find)
	grp.Get("/score/:userId1/:userId2", h.Score)
	grp.Get("/received", h.Received)
	grp.Get("/sent", h.Sent)
	grp.Get("/pending", h.Pending)
	grp.Post("/", h.Create)
	grp.Put("/:id/respond", h.Respond)
	grp.Get("/:id", h.Get)
}

func (h *MatchHandler) Find(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req dto.FindMatchesRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	q, err := req.Query()
	if err != nil {
		return middleware.FromDomain(err)
	}

	res, err := h.matching.FindMatches(c.Context(), userID, q)
	if err != nil {
		return middleware.FromDomain(err)
	}
	if res == nil {
		res = []matching.ScoredCandidate{}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *MatchHandler) Score(c fiber.Ctx) error {
	a, err := paramUUID(c, "userId1")
	if err != nil {
		return err
	}
	b, err := paramUUID(c, "userId2")
	if err != nil {
		return err
	}
	score, err := h.matching.Score(c.Context(), a, b)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, score)
}

func (h *MatchHandler) Create(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateMatchRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	m, err := h.matches.Create(c.Context(), userID, usecase.CreateMatchInput{
		RecipientID: req.RecipientID,
		ProjectID:   req.ProjectID,
		Message:     req.Message,
	})
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusCreated, "Match request sent", dto.NewMatchResponse(m))
}

func (h *MatchHandler) Respond(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	matchID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req dto.RespondMatchRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	status, err := match.ParseStatus(req.Status)
	if err != nil {
		return middleware.FromDomain(err)
	}

	m, err := h.matches.Respond(c.Context(), matchID, userID, usecase.RespondInput{Status: status, Message: req.Message})
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchResponse(m))
}

func (h *MatchHandler) Get(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	matchID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.matches.Get(c.Context(), matchID, userID)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchResponse(m))
}

func (h *MatchHandler) Received(c fiber.Ctx) error {
	return h.list(c, h.matches.ListReceived)
}

func (h *MatchHandler) Sent(c fiber.Ctx) error {
	return h.list(c, h.matches.ListSent)
}

func (h *MatchHandler) Pending(c fiber.Ctx) error {
	return h.list(c, h.matches.ListPending)
}

func (h *MatchHandler) list(c fiber.Ctx, fetch func(ctx context.Context, userID uuid.UUID) ([]match.Match, error)) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	ms, err := fetch(c.Context(), userID)
	if err != nil {
		return middleware.FromDomain(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchList(ms))
}
