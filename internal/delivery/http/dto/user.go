package dto

import (
	"time"

	"devmatch/internal/domain/skill"
	"devmatch/internal/domain/user"
	ucuser "devmatch/internal/usecase/user"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID              uuid.UUID     `json:"id"`
	Email           string        `json:"email,omitempty"`
	FullName        string        `json:"fullName"`
	Bio             string        `json:"bio"`
	ExperienceLevel string        `json:"experienceLevel"`
	GitHubUsername  string        `json:"githubUsername"`
	LinkedInURL     string        `json:"linkedinUrl"`
	ProfilePicture  string        `json:"profilePicture"`
	Timezone        string        `json:"timezone"`
	HoursPerWeek    *int          `json:"hoursPerWeek"`
	Skills          []skill.Skill `json:"skills"`
	Interests       []string      `json:"interests"`
	Onboarded       bool          `json:"isOnboarded"`
	CreatedAt       time.Time     `json:"createdAt"`
}

func NewUserResponse(u user.User) UserResponse {
	skills := u.Skills
	if skills == nil {
		skills = []skill.Skill{}
	}
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Bio:             u.Bio,
		ExperienceLevel: string(u.Experience),
		GitHubUsername:  u.GitHubUsername,
		LinkedInURL:     u.LinkedInURL,
		ProfilePicture:  u.ProfilePicture,
		Timezone:        u.Timezone,
		HoursPerWeek:    u.HoursPerWeek,
		Skills:          skills,
		Interests:       interests,
		Onboarded:       u.Onboarded,
		CreatedAt:       u.CreatedAt,
	}
}

func NewUserList(us []user.User) []UserResponse {
	out := make([]UserResponse, 0, len(us))
	for _, u := range us {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// UpdateProfileRequest is the onboarding form. Absent fields are left as they are.
type UpdateProfileRequest struct {
	FullName        *string      `json:"fullName"`
	Bio             *string      `json:"bio"`
	ExperienceLevel *string      `json:"experienceLevel"`
	GitHubUsername  *string      `json:"githubUsername"`
	LinkedInURL     *string      `json:"linkedinUrl"`
	ProfilePicture  *string      `json:"profilePicture"`
	Timezone        *string      `json:"timezone"`
	HoursPerWeek    *int         `json:"hoursPerWeek"`
	Interests       *[]string    `json:"interests"`
	SkillIDs        *[]uuid.UUID `json:"skillIds"`
	SkillNames      *[]string    `json:"skillNames"`
}

func (r UpdateProfileRequest) Input() ucuser.UpdateProfileInput {
	return ucuser.UpdateProfileInput{
		FullName:       r.FullName,
		Bio:            r.Bio,
		Experience:     r.ExperienceLevel,
		GitHubUsername: r.GitHubUsername,
		LinkedInURL:    r.LinkedInURL,
		ProfilePicture: r.ProfilePicture,
		Timezone:       r.Timezone,
		HoursPerWeek:   r.HoursPerWeek,
		Interests:      r.Interests,
		SkillIDs:       r.SkillIDs,
		SkillNames:     r.SkillNames,
	}
}
