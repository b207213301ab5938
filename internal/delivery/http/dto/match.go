package dto

import (
	"time"

	"devmatch/internal/domain/match"
	"devmatch/internal/domain/matching"
	"devmatch/internal/domain/profile"

	"github.com/google/uuid"
)

type FindMatchesRequest struct {
	SkillIDs        []uuid.UUID `json:"skillIds"`
	Interests       []string    `json:"interests"`
	ExperienceLevel string      `json:"experienceLevel"`
	MinHoursPerWeek *int        `json:"minHoursPerWeek"`
	ProjectID       *uuid.UUID  `json:"projectId"`
	Limit           int         `json:"limit"`
	MinScore        float64     `json:"minScore"`
}

func (r FindMatchesRequest) Query() (matching.Query, error) {
	lvl, err := profile.ParseExperienceLevel(r.ExperienceLevel)
	if err != nil {
		return matching.Query{}, err
	}
	return matching.Query{
		RequiredSkillIDs: r.SkillIDs,
		Interests:        r.Interests,
		MinExperience:    lvl,
		MinHoursPerWeek:  r.MinHoursPerWeek,
		ProjectID:        r.ProjectID,
		Limit:            r.Limit,
		MinScore:         r.MinScore,
	}, nil
}

type CreateMatchRequest struct {
	RecipientID uuid.UUID  `json:"recipientId"`
	ProjectID   *uuid.UUID `json:"projectId"`
	Message     string     `json:"message"`
}

type RespondMatchRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MatchResponse struct {
	ID              uuid.UUID    `json:"id"`
	RequesterID     uuid.UUID    `json:"requesterId"`
	RecipientID     uuid.UUID    `json:"recipientId"`
	ProjectID       *uuid.UUID   `json:"projectId"`
	Status          match.Status `json:"status"`
	Message         string       `json:"message"`
	ResponseMessage string       `json:"responseMessage,omitempty"`
	Score           float64      `json:"compatibilityScore"`
	Explanation     string       `json:"explanation"`
	CreatedAt       time.Time    `json:"createdAt"`
	RespondedAt     *time.Time   `json:"respondedAt"`
}

func NewMatchResponse(m match.Match) MatchResponse {
	return MatchResponse{
		ID:              m.ID,
		RequesterID:     m.RequesterID,
		RecipientID:     m.RecipientID,
		ProjectID:       m.ProjectID,
		Status:          m.Status,
		Message:         m.Message,
		ResponseMessage: m.ResponseMessage,
		Score:           m.Score,
		Explanation:     m.Explanation,
		CreatedAt:       m.CreatedAt,
		RespondedAt:     m.RespondedAt,
	}
}

func NewMatchList(ms []match.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, NewMatchResponse(m))
	}
	return out
}
