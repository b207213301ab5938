package user

import (
	"context"
	"fmt"
	"strings"

	"devmatch/internal/domain"
	"devmatch/internal/domain/profile"
	"devmatch/internal/domain/skill"
	"devmatch/internal/domain/user"
	"devmatch/internal/infrastructure/github"

	"github.com/google/uuid"
)

const maxHoursPerWeek = 168

// SkillCatalog resolves skill references given by clients.
type SkillCatalog interface {
	FindByNames(ctx context.Context, names []string) ([]skill.Skill, error)
	MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type LanguageImporter interface {
	Languages(ctx context.Context, username string) ([]github.Language, error)
}

// UpdateProfileInput is the onboarding form. Nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName       *string
	Bio            *string
	Experience     *string
	GitHubUsername *string
	LinkedInURL    *string
	ProfilePicture *string
	Timezone       *string
	HoursPerWeek   *int
	Interests      *[]string
	SkillIDs       *[]uuid.UUID
	// SkillNames are resolved against the catalog and merged with SkillIDs.
	SkillNames *[]string
}

type GitHubSyncResult struct {
	Languages []github.Language `json:"languages"`
	Added     []skill.Skill     `json:"added"`
	Unmatched []string          `json:"unmatched"`
}

type Service struct {
	users    user.Repository
	skills   SkillCatalog
	importer LanguageImporter
}

func NewService(users user.Repository, skills SkillCatalog, importer LanguageImporter) *Service {
	return &Service{users: users, skills: skills, importer: importer}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (user.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if !u.Active {
		return user.User{}, user.ErrNotFound
	}
	return u.Sanitized(), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (user.User, error) {
	upd, err := s.toUpdate(ctx, in)
	if err != nil {
		return user.User{}, err
	}
	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		return user.User{}, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) toUpdate(ctx context.Context, in UpdateProfileInput) (user.ProfileUpdate, error) {
	upd := user.ProfileUpdate{
		FullName:       in.FullName,
		Bio:            in.Bio,
		LinkedInURL:    in.LinkedInURL,
		ProfilePicture: in.ProfilePicture,
		Timezone:       in.Timezone,
		Interests:      in.Interests,
	}

	if in.Experience != nil {
		lvl, err := profile.ParseExperienceLevel(*in.Experience)
		if err != nil {
			return user.ProfileUpdate{}, err
		}
		upd.Experience = &lvl
	}
	if in.HoursPerWeek != nil {
		if h := *in.HoursPerWeek; h < 0 || h > maxHoursPerWeek {
			return user.ProfileUpdate{}, fmt.Errorf("%w: hoursPerWeek must be within [0,%d]", domain.ErrInvalidArgument, maxHoursPerWeek)
		}
		upd.HoursPerWeek = in.HoursPerWeek
	}
	if in.GitHubUsername != nil {
		name := strings.TrimPrefix(strings.TrimSpace(*in.GitHubUsername), "@")
		if name != "" && !github.ValidUsername(name) {
			return user.ProfileUpdate{}, fmt.Errorf("%w: invalid github username", domain.ErrInvalidArgument)
		}
		upd.GitHubUsername = &name
	}

	if in.SkillIDs == nil && in.SkillNames == nil {
		return upd, nil
	}
	var ids []uuid.UUID
	if in.SkillIDs != nil {
		ids = profile.UniqueIDs(*in.SkillIDs)
		missing, err := s.skills.MissingIDs(ctx, ids)
		if err != nil {
			return user.ProfileUpdate{}, err
		}
		if len(missing) > 0 {
			return user.ProfileUpdate{}, fmt.Errorf("%w: unknown skill id %s", domain.ErrInvalidArgument, missing[0])
		}
	}
	if in.SkillNames != nil && len(*in.SkillNames) > 0 {
		found, unmatched, err := s.resolveNames(ctx, *in.SkillNames)
		if err != nil {
			return user.ProfileUpdate{}, err
		}
		if len(unmatched) > 0 {
			return user.ProfileUpdate{}, fmt.Errorf("%w: unknown skill %q", domain.ErrInvalidArgument, unmatched[0])
		}
		for _, sk := range found {
			ids = append(ids, sk.ID)
		}
	}
	ids = profile.UniqueIDs(ids)
	upd.SkillIDs = &ids
	return upd, nil
}

func (s *Service) Search(ctx context.Context, f user.DirectoryFilter) ([]user.User, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrInvalidArgument)
	}
	f.Search = strings.TrimSpace(f.Search)
	users, err := s.users.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}

// SyncGitHub adds the catalog skills matching the languages of the user's
// public repositories. Existing skills are kept.
func (s *Service) SyncGitHub(ctx context.Context, userID uuid.UUID) (GitHubSyncResult, error) {
	if s.importer == nil {
		return GitHubSyncResult{}, fmt.Errorf("%w: github import is disabled", domain.ErrInvalidArgument)
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return GitHubSyncResult{}, err
	}
	if strings.TrimSpace(u.GitHubUsername) == "" {
		return GitHubSyncResult{}, fmt.Errorf("%w: set a github username first", domain.ErrInvalidArgument)
	}

	langs, err := s.importer.Languages(ctx, u.GitHubUsername)
	if err != nil {
		return GitHubSyncResult{}, err
	}
	names := make([]string, 0, len(langs))
	for _, l := range langs {
		names = append(names, l.Name)
	}
	found, unmatched, err := s.resolveNames(ctx, names)
	if err != nil {
		return GitHubSyncResult{}, err
	}

	had := make(map[uuid.UUID]struct{}, len(u.Skills))
	for _, sk := range u.Skills {
		had[sk.ID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(found))
	added := make([]skill.Skill, 0, len(found))
	for _, sk := range found {
		ids = append(ids, sk.ID)
		if _, ok := had[sk.ID]; !ok {
			added = append(added, sk)
		}
	}
	if len(ids) > 0 {
		if _, err := s.users.AddSkills(ctx, userID, ids); err != nil {
			return GitHubSyncResult{}, err
		}
	}
	return GitHubSyncResult{Languages: langs, Added: added, Unmatched: unmatched}, nil
}

// resolveNames splits names into catalog skills and names the catalog lacks.
// Names are compared through skill.CanonicalName, so "golang" finds Go.
func (s *Service) resolveNames(ctx context.Context, names []string) ([]skill.Skill, []string, error) {
	canonical := make([]string, 0, len(names))
	for _, n := range names {
		if c := skill.CanonicalName(n); c != "" {
			canonical = append(canonical, c)
		}
	}
	found, err := s.skills.FindByNames(ctx, canonical)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]struct{}, len(found))
	for _, sk := range found {
		known[skill.NormalizeName(sk.Name)] = struct{}{}
	}
	unmatched := make([]string, 0)
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, ok := known[skill.CanonicalName(n)]; !ok {
			unmatched = append(unmatched, strings.TrimSpace(n))
		}
	}
	return found, unmatched, nil
}
