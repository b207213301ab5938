package matching

import (
	"fmt"
	"math"

	"devmatch/internal/domain"
	"devmatch/internal/domain/profile"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query describes one request for match suggestions.
type Query struct {
	RequesterID      uuid.UUID
	RequiredSkillIDs []uuid.UUID
	Interests        []string
	MinExperience    profile.ExperienceLevel
	MinHoursPerWeek  *int
	ProjectID        *uuid.UUID
	// ProjectSkillIDs are the project's required skills, resolved server side.
	ProjectSkillIDs []uuid.UUID
	Limit           int
	MinScore        float64
}

// Normalize de-duplicates the sets and fills the default limit. It returns an
// error for values the engine cannot work with.
func (q Query) Normalize() (Query, error) {
	if q.RequesterID == uuid.Nil {
		return Query{}, fmt.Errorf("%w: requester id is required", domain.ErrInvalidArgument)
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 0 {
		return Query{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidArgument)
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.MinHoursPerWeek != nil && *q.MinHoursPerWeek < 0 {
		return Query{}, fmt.Errorf("%w: minHoursPerWeek must not be negative", domain.ErrInvalidArgument)
	}
	if !q.MinExperience.Valid() {
		return Query{}, fmt.Errorf("%w: unknown experience level %q", domain.ErrInvalidArgument, q.MinExperience)
	}
	if q.MinScore < 0 || q.MinScore > 1 || math.IsNaN(q.MinScore) {
		return Query{}, fmt.Errorf("%w: minScore must be within [0,1]", domain.ErrInvalidArgument)
	}
	if q.ProjectID != nil && *q.ProjectID == uuid.Nil {
		q.ProjectID = nil
	}
	q.RequiredSkillIDs = profile.UniqueIDs(q.RequiredSkillIDs)
	q.ProjectSkillIDs = profile.UniqueIDs(q.ProjectSkillIDs)
	q.Interests = profile.NormalizeInterests(q.Interests)
	return q, nil
}

// Weights of the four sub-scores. They must be non-negative and sum to 1.
type Weights struct {
	Skills       float64 `mapstructure:"skills"`
	Interests    float64 `mapstructure:"interests"`
	Experience   float64 `mapstructure:"experience"`
	Availability float64 `mapstructure:"availability"`
}

func DefaultWeights() Weights {
	return Weights{Skills: 0.40, Interests: 0.30, Experience: 0.15, Availability: 0.15}
}

const weightTolerance = 1e-9

func (w Weights) Validate() error {
	for _, v := range []float64{w.Skills, w.Interests, w.Experience, w.Availability} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weights must be non-negative", domain.ErrInvalidArgument)
		}
	}
	sum := w.Skills + w.Interests + w.Experience + w.Availability
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights must sum to 1, got %.6f", domain.ErrInvalidArgument, sum)
	}
	return nil
}

// FilterPolicy holds the knobs of the candidate filter that are a product decision.
type FilterPolicy struct {
	AllowRematchAfterReject bool
}
