package profile

import (
	"fmt"
	"slices"
	"strings"

	"devmatch/internal/domain"

	"github.com/google/uuid"
)

type ExperienceLevel string

const (
	LevelUnknown      ExperienceLevel = ""
	LevelBeginner     ExperienceLevel = "BEGINNER"
	LevelIntermediate ExperienceLevel = "INTERMEDIATE"
	LevelAdvanced     ExperienceLevel = "ADVANCED"
	LevelExpert       ExperienceLevel = "EXPERT"
)

// MaxRank is the rank of the highest level.
const MaxRank = 3

// ParseExperienceLevel accepts any casing. An empty string yields LevelUnknown.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	lvl := ExperienceLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !lvl.Valid() {
		return LevelUnknown, fmt.Errorf("%w: unknown experience level %q", domain.ErrInvalidArgument, s)
	}
	return lvl, nil
}

func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelUnknown, LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

func (l ExperienceLevel) Known() bool {
	return l != LevelUnknown && l.Valid()
}

// Rank returns 0..MaxRank, or -1 for unknown levels.
func (l ExperienceLevel) Rank() int {
	switch l {
	case LevelBeginner:
		return 0
	case LevelIntermediate:
		return 1
	case LevelAdvanced:
		return 2
	case LevelExpert:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l is known and not below min.
func (l ExperienceLevel) AtLeast(min ExperienceLevel) bool {
	if !l.Known() {
		return false
	}
	return l.Rank() >= min.Rank()
}

// Profile is the read-only snapshot of a user that the matching engine works on.
type Profile struct {
	ID           uuid.UUID
	Skills       []uuid.UUID
	Interests    []string
	Experience   ExperienceLevel
	HoursPerWeek *int
	Timezone     string
}

func (p Profile) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("%w: profile id is empty", domain.ErrInvalidArgument)
	}
	for _, s := range p.Skills {
		if s == uuid.Nil {
			return fmt.Errorf("%w: profile %s has an empty skill id", domain.ErrInvalidArgument, p.ID)
		}
	}
	if !p.Experience.Valid() {
		return fmt.Errorf("%w: profile %s has experience level %q", domain.ErrInvalidArgument, p.ID, p.Experience)
	}
	if p.HoursPerWeek != nil && *p.HoursPerWeek < 0 {
		return fmt.Errorf("%w: profile %s has negative hours per week", domain.ErrInvalidArgument, p.ID)
	}
	return nil
}

func (p Profile) HasSkill(id uuid.UUID) bool {
	return slices.Contains(p.Skills, id)
}

// NormalizeInterests lower-cases, trims and de-duplicates tags, keeping first-seen order.
func NormalizeInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// UniqueIDs drops nil and repeated ids, keeping first-seen order.
func UniqueIDs(in []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	seen := make(map[uuid.UUID]struct{}, len(in))
	for _, id := range in {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
