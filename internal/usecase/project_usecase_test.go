package usecase

import (
	"context"
	"testing"

	"devmatch/internal/domain"
	"devmatch/internal/domain/project"
	"devmatch/internal/infrastructure/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_Create(t *testing.T) {
	projects := newFakeProjects()
	uc := NewProjectUsecase(projects, newFakeSkills("Go", "React"), newFakeCache(), nil)
	ctx := context.Background()
	creator := uuid.New()
	size := 3

	p, err := uc.Create(ctx, creator, CreateProjectInput{
		Title:          "  Team finder ",
		RequiredSkills: skillIDs("Go", "React", "Go"),
		MaxTeamSize:    &size,
	})
	require.NoError(t, err)
	assert.Equal(t, "Team finder", p.Title)
	assert.Len(t, p.RequiredSkills, 2)
	assert.Equal(t, 1, p.CurrentTeamSize)
	assert.True(t, p.Open)

	got, err := uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	open, err := uc.ListOpen(ctx, 20, 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestProject_CreateValidation(t *testing.T) {
	uc := NewProjectUsecase(newFakeProjects(), newFakeSkills("Go"), newFakeCache(), nil)
	ctx := context.Background()
	zero := 0

	_, err := uc.Create(ctx, uuid.New(), CreateProjectInput{Title: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = uc.Create(ctx, uuid.New(), CreateProjectInput{Title: "x", MaxTeamSize: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = uc.Create(ctx, uuid.New(), CreateProjectInput{Title: "x", RequiredSkills: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = uc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.ListOpen(ctx, -1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func newOwnedProject(t *testing.T, size int) (*Project, *fakeProjects, *fakeCache, project.Project) {
	t.Helper()
	projects := newFakeProjects()
	c := newFakeCache()
	uc := NewProjectUsecase(projects, newFakeSkills("Go", "React"), c, nil)
	p, err := uc.Create(context.Background(), uuid.New(), CreateProjectInput{Title: "Crew", MaxTeamSize: &size})
	require.NoError(t, err)
	return uc, projects, c, p
}

func TestProject_Update(t *testing.T) {
	uc, _, c, p := newOwnedProject(t, 3)
	ctx := context.Background()
	title, closed := "Renamed", false
	skills := skillIDs("React")
	require.NoError(t, c.SetJSON(ctx, cache.FindKey(uuid.New(), "q"), []int{}, 0))

	got, err := uc.Update(ctx, p.CreatorID, p.ID, UpdateProjectInput{Title: &title, Open: &closed, RequiredSkills: &skills})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.False(t, got.Open)
	assert.Equal(t, skills, got.RequiredSkills)
	assert.Empty(t, c.keys("matches:find:"), "rankings embed project skills")

	stored, err := uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)

	_, err = uc.Update(ctx, uuid.New(), p.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	unknown := []uuid.UUID{uuid.New()}
	_, err = uc.Update(ctx, p.CreatorID, p.ID, UpdateProjectInput{RequiredSkills: &unknown})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestProject_UpdateCannotShrinkBelowTeam(t *testing.T) {
	uc, _, _, p := newOwnedProject(t, 3)
	ctx := context.Background()
	_, err := uc.AddMember(ctx, p.CreatorID, p.ID, uuid.New())
	require.NoError(t, err)

	one := 1
	_, err = uc.Update(ctx, p.CreatorID, p.ID, UpdateProjectInput{MaxTeamSize: &one})
	assert.ErrorIs(t, err, domain.ErrConflict)

	two := 2
	got, err := uc.Update(ctx, p.CreatorID, p.ID, UpdateProjectInput{MaxTeamSize: &two})
	require.NoError(t, err)
	assert.False(t, got.AcceptingMembers())
}

func TestProject_Delete(t *testing.T) {
	uc, _, _, p := newOwnedProject(t, 3)
	ctx := context.Background()

	assert.ErrorIs(t, uc.Delete(ctx, uuid.New(), p.ID), domain.ErrForbidden)
	require.NoError(t, uc.Delete(ctx, p.CreatorID, p.ID))
	_, err := uc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, p.CreatorID, p.ID), domain.ErrNotFound)
}

func TestProject_Members(t *testing.T) {
	uc, _, _, p := newOwnedProject(t, 2)
	ctx := context.Background()
	member := uuid.New()

	got, err := uc.AddMember(ctx, p.CreatorID, p.ID, member)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{member}, got.MemberIDs)
	assert.Equal(t, 2, got.CurrentTeamSize)

	_, err = uc.AddMember(ctx, p.CreatorID, p.ID, member)
	assert.ErrorIs(t, err, project.ErrAlreadyMember)
	_, err = uc.AddMember(ctx, p.CreatorID, p.ID, uuid.New())
	assert.ErrorIs(t, err, project.ErrTeamFull)
	_, err = uc.AddMember(ctx, p.CreatorID, p.ID, p.CreatorID)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = uc.AddMember(ctx, member, p.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	accepting, err := uc.ListAcceptingMembers(ctx, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, accepting)

	_, err = uc.RemoveMember(ctx, uuid.New(), p.ID, member)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err = uc.RemoveMember(ctx, member, p.ID, member)
	require.NoError(t, err, "members may leave on their own")
	assert.Empty(t, got.MemberIDs)
	assert.Equal(t, 1, got.CurrentTeamSize)

	_, err = uc.RemoveMember(ctx, p.CreatorID, p.ID, member)
	assert.ErrorIs(t, err, project.ErrNotMember)

	accepting, err = uc.ListAcceptingMembers(ctx, 20, 0)
	require.NoError(t, err)
	assert.Len(t, accepting, 1)
}

func TestProject_ListByCreator(t *testing.T) {
	uc, _, _, p := newOwnedProject(t, 2)
	ctx := context.Background()
	_, err := uc.Create(ctx, uuid.New(), CreateProjectInput{Title: "Other"})
	require.NoError(t, err)

	mine, err := uc.ListByCreator(ctx, p.CreatorID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)
}
