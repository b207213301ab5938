package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/skill"
	"devmatch/internal/repository"

	"github.com/google/uuid"
)

const (
	skillsCacheKey = "skills:all"
	skillsCacheTTL = time.Hour
)

type SkillUsecase interface {
	List(ctx context.Context) ([]skill.Skill, error)
	Get(ctx context.Context, id uuid.UUID) (skill.Skill, error)
	Search(ctx context.Context, q string, limit int) ([]skill.Skill, error)
	ListByCategory(ctx context.Context, category string) ([]skill.Skill, error)
}

type Skill struct {
	repo  repository.SkillRepository
	cache Cache
}

func NewSkillUsecase(repo repository.SkillRepository, c Cache) *Skill {
	return &Skill{repo: repo, cache: c}
}

// List serves the catalog from cache. The catalog only changes on seeding.
func (u *Skill) List(ctx context.Context) ([]skill.Skill, error) {
	var cached []skill.Skill
	if hit, err := u.cache.GetJSON(ctx, skillsCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	items, err := u.repo.List(ctx)
	if err != nil {
		return nil, deadline(err)
	}
	_ = u.cache.SetJSON(ctx, skillsCacheKey, items, skillsCacheTTL)
	return items, nil
}

func (u *Skill) Get(ctx context.Context, id uuid.UUID) (skill.Skill, error) {
	s, err := u.repo.GetByID(ctx, id)
	return s, deadline(err)
}

func (u *Skill) Search(ctx context.Context, q string, limit int) ([]skill.Skill, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: q is required", domain.ErrInvalidArgument)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidArgument)
	}
	items, err := u.repo.Search(ctx, q, limit)
	return items, deadline(err)
}

func (u *Skill) ListByCategory(ctx context.Context, category string) ([]skill.Skill, error) {
	c, err := skill.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	items, err := u.repo.ListByCategory(ctx, c)
	return items, deadline(err)
}
