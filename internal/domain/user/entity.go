package user

import (
	"time"

	"devmatch/internal/domain/profile"
	"devmatch/internal/domain/skill"

	"github.com/google/uuid"
)

const (
	ProviderLocal = "local"
)

// User is an account together with the public profile shown in the directory.
type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	FullName       string
	Bio            string
	Experience     profile.ExperienceLevel
	GitHubUsername string
	LinkedInURL    string
	ProfilePicture string
	Timezone       string
	HoursPerWeek   *int
	AuthProvider   string
	ProviderID     string
	Active         bool
	Onboarded      bool
	Skills         []skill.Skill
	Interests      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Profile returns the snapshot the matching engine scores.
func (u User) Profile() profile.Profile {
	ids := make([]uuid.UUID, 0, len(u.Skills))
	for _, s := range u.Skills {
		ids = append(ids, s.ID)
	}
	return profile.Profile{
		ID:           u.ID,
		Skills:       profile.UniqueIDs(ids),
		Interests:    profile.NormalizeInterests(u.Interests),
		Experience:   u.Experience,
		HoursPerWeek: u.HoursPerWeek,
		Timezone:     u.Timezone,
	}
}

// Sanitized drops secrets before a user leaves the service.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// ProfileUpdate carries the onboarding form. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName       *string
	Bio            *string
	Experience     *profile.ExperienceLevel
	GitHubUsername *string
	LinkedInURL    *string
	ProfilePicture *string
	Timezone       *string
	HoursPerWeek   *int
	Interests      *[]string
	SkillIDs       *[]uuid.UUID
}

// DirectoryFilter narrows the user directory.
type DirectoryFilter struct {
	Search   string
	SkillIDs []uuid.UUID
	Limit    int
	Offset   int
}
