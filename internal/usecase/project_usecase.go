package usecase

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/project"
	"devmatch/internal/infrastructure/cache"
	"devmatch/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateProjectInput struct {
	Title          string
	Description    string
	RequiredSkills []uuid.UUID
	MaxTeamSize    *int
}

// UpdateProjectInput carries a partial edit. Nil fields are left unchanged.
type UpdateProjectInput struct {
	Title          *string
	Description    *string
	RequiredSkills *[]uuid.UUID
	MaxTeamSize    *int
	Open           *bool
}

type ProjectUsecase interface {
	Create(ctx context.Context, creatorID uuid.UUID, in CreateProjectInput) (project.Project, error)
	Get(ctx context.Context, id uuid.UUID) (project.Project, error)
	Update(ctx context.Context, actorID, id uuid.UUID, in UpdateProjectInput) (project.Project, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	ListOpen(ctx context.Context, limit, offset int) ([]project.Project, error)
	ListAcceptingMembers(ctx context.Context, limit, offset int) ([]project.Project, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]project.Project, error)
	AddMember(ctx context.Context, actorID, projectID, memberID uuid.UUID) (project.Project, error)
	RemoveMember(ctx context.Context, actorID, projectID, memberID uuid.UUID) (project.Project, error)
}

type Project struct {
	projects repository.ProjectRepository
	skills   repository.SkillRepository
	cache    Cache
	logger   *zap.Logger
	now      func() time.Time
}

func NewProjectUsecase(projects repository.ProjectRepository, skills repository.SkillRepository, c Cache, logger *zap.Logger) *Project {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Project{projects: projects, skills: skills, cache: c, logger: logger.Named("projects"), now: time.Now}
}

func (u *Project) Create(ctx context.Context, creatorID uuid.UUID, in CreateProjectInput) (project.Project, error) {
	p, err := project.New(creatorID, in.Title, in.Description, in.RequiredSkills, in.MaxTeamSize, u.now())
	if err != nil {
		return project.Project{}, err
	}
	if err := u.checkSkills(ctx, p.RequiredSkills); err != nil {
		return project.Project{}, err
	}
	if err := u.projects.Create(ctx, p); err != nil {
		return project.Project{}, deadline(err)
	}
	u.logger.Info("project created", zap.String("project_id", p.ID.String()), zap.String("creator_id", creatorID.String()))
	return p, nil
}

func (u *Project) Get(ctx context.Context, id uuid.UUID) (project.Project, error) {
	p, err := u.projects.GetByID(ctx, id)
	return p, deadline(err)
}

func (u *Project) ListOpen(ctx context.Context, limit, offset int) ([]project.Project, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrInvalidArgument)
	}
	items, err := u.projects.ListOpen(ctx, limit, offset)
	return items, deadline(err)
}

func (u *Project) Update(ctx context.Context, actorID, id uuid.UUID, in UpdateProjectInput) (project.Project, error) {
	p, err := u.owned(ctx, actorID, id)
	if err != nil {
		return project.Project{}, err
	}
	err = p.Apply(project.Update{
		Title:          in.Title,
		Description:    in.Description,
		RequiredSkills: in.RequiredSkills,
		MaxTeamSize:    in.MaxTeamSize,
		Open:           in.Open,
	})
	if err != nil {
		return project.Project{}, err
	}
	if in.RequiredSkills != nil {
		if err := u.checkSkills(ctx, p.RequiredSkills); err != nil {
			return project.Project{}, err
		}
	}
	if err := u.projects.Update(ctx, p); err != nil {
		return project.Project{}, deadline(err)
	}
	if in.RequiredSkills != nil {
		u.dropRankings(ctx)
	}
	u.logger.Info("project updated", zap.String("project_id", id.String()))
	return p, nil
}

// Delete removes the project together with its matches.
func (u *Project) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := u.owned(ctx, actorID, id); err != nil {
		return err
	}
	if err := u.projects.Delete(ctx, id); err != nil {
		return deadline(err)
	}
	u.dropRankings(ctx)
	u.logger.Info("project deleted", zap.String("project_id", id.String()))
	return nil
}

func (u *Project) ListAcceptingMembers(ctx context.Context, limit, offset int) ([]project.Project, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrInvalidArgument)
	}
	items, err := u.projects.ListAcceptingMembers(ctx, limit, offset)
	return items, deadline(err)
}

func (u *Project) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]project.Project, error) {
	items, err := u.projects.ListByCreator(ctx, creatorID)
	return items, deadline(err)
}

// AddMember puts memberID on the team. Only the creator may add members.
func (u *Project) AddMember(ctx context.Context, actorID, projectID, memberID uuid.UUID) (project.Project, error) {
	p, err := u.owned(ctx, actorID, projectID)
	if err != nil {
		return project.Project{}, err
	}
	if memberID == uuid.Nil || p.IsCreator(memberID) {
		return project.Project{}, fmt.Errorf("%w: the creator is already on the team", domain.ErrInvalidArgument)
	}
	if p.HasMember(memberID) {
		return project.Project{}, project.ErrAlreadyMember
	}
	if !p.AcceptingMembers() {
		return project.Project{}, project.ErrTeamFull
	}
	if err := u.projects.AddMember(ctx, projectID, memberID, u.now().UTC()); err != nil {
		return project.Project{}, deadline(err)
	}
	u.logger.Info("team member added", zap.String("project_id", projectID.String()), zap.String("user_id", memberID.String()))
	return u.Get(ctx, projectID)
}

// RemoveMember takes memberID off the team. The creator may remove anyone and
// a member may remove themselves.
func (u *Project) RemoveMember(ctx context.Context, actorID, projectID, memberID uuid.UUID) (project.Project, error) {
	p, err := u.projects.GetByID(ctx, projectID)
	if err != nil {
		return project.Project{}, deadline(err)
	}
	if !p.IsCreator(actorID) && actorID != memberID {
		return project.Project{}, fmt.Errorf("%w: only the creator can remove other members", domain.ErrForbidden)
	}
	if !p.HasMember(memberID) {
		return project.Project{}, project.ErrNotMember
	}
	if err := u.projects.RemoveMember(ctx, projectID, memberID); err != nil {
		return project.Project{}, deadline(err)
	}
	u.logger.Info("team member removed", zap.String("project_id", projectID.String()), zap.String("user_id", memberID.String()))
	return u.Get(ctx, projectID)
}

func (u *Project) owned(ctx context.Context, actorID, id uuid.UUID) (project.Project, error) {
	p, err := u.projects.GetByID(ctx, id)
	if err != nil {
		return project.Project{}, deadline(err)
	}
	if !p.IsCreator(actorID) {
		return project.Project{}, fmt.Errorf("%w: only the creator can manage this project", domain.ErrForbidden)
	}
	return p, nil
}

func (u *Project) checkSkills(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := u.skills.MissingIDs(ctx, ids)
	if err != nil {
		return deadline(err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown skill id %s", domain.ErrInvalidArgument, joinIDs(missing))
	}
	return nil
}

// dropRankings clears cached find results, which embed project skills.
func (u *Project) dropRankings(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.DeleteByPattern(ctx, cache.FindAllPattern()); err != nil {
		u.logger.Debug("cache invalidation failed", zap.Error(err))
	}
}
