package match

import (
	"fmt"
	"strings"
	"time"

	"devmatch/internal/domain"

	"github.com/google/uuid"
)

var ErrNotFound = fmt.Errorf("match %w", domain.ErrNotFound)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown match status %q", domain.ErrInvalidArgument, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// Match is a proposed connection between two users. It is never deleted; it only
// moves from PENDING to one of the terminal states.
type Match struct {
	ID              uuid.UUID
	RequesterID     uuid.UUID
	RecipientID     uuid.UUID
	ProjectID       *uuid.UUID
	Status          Status
	Message         string
	ResponseMessage string
	Score           float64
	Explanation     string
	CreatedAt       time.Time
	RespondedAt     *time.Time
}

// New builds a PENDING match.
func New(requesterID, recipientID uuid.UUID, projectID *uuid.UUID, message string, now time.Time) (Match, error) {
	if requesterID == uuid.Nil || recipientID == uuid.Nil {
		return Match{}, fmt.Errorf("%w: requester and recipient are required", domain.ErrInvalidArgument)
	}
	if requesterID == recipientID {
		return Match{}, fmt.Errorf("%w: cannot match with yourself", domain.ErrInvalidArgument)
	}
	if projectID != nil && *projectID == uuid.Nil {
		projectID = nil
	}
	return Match{
		ID:          uuid.New(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		ProjectID:   projectID,
		Status:      StatusPending,
		Message:     strings.TrimSpace(message),
		CreatedAt:   now.UTC(),
	}, nil
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.IsTerminal()
}

// Transition moves the match to a terminal status and stamps RespondedAt.
// On error the match is left untouched.
func (m *Match) Transition(to Status, at time.Time) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, to)
	}
	if !CanTransition(m.Status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStateTransition, m.Status, to)
	}
	ts := at.UTC()
	m.Status = to
	m.RespondedAt = &ts
	return nil
}

func (m Match) Involves(userID uuid.UUID) bool {
	return m.RequesterID == userID || m.RecipientID == userID
}

// Counterpart returns the other participant.
func (m Match) Counterpart(userID uuid.UUID) uuid.UUID {
	if m.RequesterID == userID {
		return m.RecipientID
	}
	return m.RequesterID
}

// SameScope reports whether the match belongs to the given project scope. A nil
// project is the general, project-less scope.
func (m Match) SameScope(projectID *uuid.UUID) bool {
	if m.ProjectID == nil || projectID == nil {
		return m.ProjectID == nil && projectID == nil
	}
	return *m.ProjectID == *projectID
}

// Realtime event names pushed to participants.
const (
	EventRequested = "match_requested"
	EventResponded = "match_responded"
	EventExpired   = "match_expired"
)
