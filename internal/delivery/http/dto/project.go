package dto

import (
	"devmatch/internal/usecase"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	RequiredSkillIDs []uuid.UUID `json:"requiredSkillIds"`
	MaxTeamSize      *int        `json:"maxTeamSize"`
}

func (r CreateProjectRequest) Input() usecase.CreateProjectInput {
	return usecase.CreateProjectInput{
		Title:          r.Title,
		Description:    r.Description,
		RequiredSkills: r.RequiredSkillIDs,
		MaxTeamSize:    r.MaxTeamSize,
	}
}

// UpdateProjectRequest is a partial edit. Omitted fields stay as they are.
type UpdateProjectRequest struct {
	Title            *string      `json:"title"`
	Description      *string      `json:"description"`
	RequiredSkillIDs *[]uuid.UUID `json:"requiredSkillIds"`
	MaxTeamSize      *int         `json:"maxTeamSize"`
	IsOpen           *bool        `json:"isOpen"`
}

func (r UpdateProjectRequest) Input() usecase.UpdateProjectInput {
	return usecase.UpdateProjectInput{
		Title:          r.Title,
		Description:    r.Description,
		RequiredSkills: r.RequiredSkillIDs,
		MaxTeamSize:    r.MaxTeamSize,
		Open:           r.IsOpen,
	}
}
