package project

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/profile"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = fmt.Errorf("project %w", domain.ErrNotFound)
	ErrTeamFull      = fmt.Errorf("%w: project team is full", domain.ErrConflict)
	ErrAlreadyMember = fmt.Errorf("%w: user is already a team member", domain.ErrConflict)
	ErrNotMember     = fmt.Errorf("%w: user is not a team member", domain.ErrNotFound)
)

type Project struct {
	ID              uuid.UUID   `json:"id"`
	CreatorID       uuid.UUID   `json:"creatorId"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	RequiredSkills  []uuid.UUID `json:"requiredSkillIds"`
	MaxTeamSize     *int        `json:"maxTeamSize,omitempty"`
	CurrentTeamSize int         `json:"currentTeamSize"`
	Open            bool        `json:"isOpen"`
	// MemberIDs lists everyone on the team except the creator.
	MemberIDs []uuid.UUID `json:"memberIds"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Update carries the editable fields. Nil fields are left unchanged.
type Update struct {
	Title          *string
	Description    *string
	RequiredSkills *[]uuid.UUID
	MaxTeamSize    *int
	Open           *bool
}

// New builds an open project with the creator as its first member.
func New(creatorID uuid.UUID, title, description string, requiredSkills []uuid.UUID, maxTeamSize *int, now time.Time) (Project, error) {
	title = strings.TrimSpace(title)
	if creatorID == uuid.Nil {
		return Project{}, fmt.Errorf("%w: creator is required", domain.ErrInvalidArgument)
	}
	if title == "" {
		return Project{}, fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
	}
	if maxTeamSize != nil && *maxTeamSize < 1 {
		return Project{}, fmt.Errorf("%w: maxTeamSize must be at least 1", domain.ErrInvalidArgument)
	}
	return Project{
		ID:              uuid.New(),
		CreatorID:       creatorID,
		Title:           title,
		Description:     strings.TrimSpace(description),
		RequiredSkills:  profile.UniqueIDs(requiredSkills),
		MaxTeamSize:     maxTeamSize,
		CurrentTeamSize: 1,
		Open:            true,
		MemberIDs:       []uuid.UUID{},
		CreatedAt:       now.UTC(),
	}, nil
}

// AcceptingMembers reports whether another member can still join.
func (p Project) AcceptingMembers() bool {
	if !p.Open {
		return false
	}
	return p.MaxTeamSize == nil || p.CurrentTeamSize < *p.MaxTeamSize
}

// Apply edits p in place. The team cannot be capped below its current size.
func (p *Project) Apply(upd Update) error {
	next := *p
	if upd.Title != nil {
		next.Title = strings.TrimSpace(*upd.Title)
		if next.Title == "" {
			return fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
		}
	}
	if upd.Description != nil {
		next.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.RequiredSkills != nil {
		next.RequiredSkills = profile.UniqueIDs(*upd.RequiredSkills)
	}
	if upd.MaxTeamSize != nil {
		size := *upd.MaxTeamSize
		if size < 1 {
			return fmt.Errorf("%w: maxTeamSize must be at least 1", domain.ErrInvalidArgument)
		}
		if size < next.CurrentTeamSize {
			return fmt.Errorf("%w: maxTeamSize %d is below the current team size %d", domain.ErrConflict, size, next.CurrentTeamSize)
		}
		next.MaxTeamSize = &size
	}
	if upd.Open != nil {
		next.Open = *upd.Open
	}
	*p = next
	return nil
}

func (p Project) IsCreator(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.CreatorID == userID
}

func (p Project) HasMember(userID uuid.UUID) bool {
	return slices.Contains(p.MemberIDs, userID)
}

// Joiner is the participant of an accepted project match who joins the team:
// the recipient when the creator asked, otherwise the requester.
func (p Project) Joiner(requesterID, recipientID uuid.UUID) uuid.UUID {
	if p.IsCreator(requesterID) {
		return recipientID
	}
	return requesterID
}
