package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/matching"
	"devmatch/internal/infrastructure/cache"
	"devmatch/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MatchingUsecase interface {
	FindMatches(ctx context.Context, requesterID uuid.UUID, q matching.Query) ([]matching.ScoredCandidate, error)
	Score(ctx context.Context, a, b uuid.UUID) (float64, error)
}

type MatchingOptions struct {
	// PoolSize caps how many profiles are loaded per query. Zero loads all.
	PoolSize int
	FindTTL  time.Duration
	ScoreTTL time.Duration
}

type Matching struct {
	engine   *matching.Engine
	profiles repository.ProfileRepository
	matches  repository.MatchRepository
	projects repository.ProjectRepository
	skills   repository.SkillRepository
	cache    Cache
	opts     MatchingOptions
	logger   *zap.Logger
}

func NewMatchingUsecase(
	engine *matching.Engine,
	profiles repository.ProfileRepository,
	matches repository.MatchRepository,
	projects repository.ProjectRepository,
	skills repository.SkillRepository,
	c Cache,
	opts MatchingOptions,
	logger *zap.Logger,
) *Matching {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matching{
		engine:   engine,
		profiles: profiles,
		matches:  matches,
		projects: projects,
		skills:   skills,
		cache:    c,
		opts:     opts,
		logger:   logger.Named("matching"),
	}
}

// findCacheKey is the normalised query as it is hashed into the cache key.
type findCacheKey struct {
	Skills        []string `json:"skills"`
	Interests     []string `json:"interests"`
	MinExperience string   `json:"minExperience"`
	MinHours      *int     `json:"minHours"`
	Project       string   `json:"project"`
	Limit         int      `json:"limit"`
	MinScore      float64  `json:"minScore"`
}

func newFindCacheKey(q matching.Query) findCacheKey {
	skills := make([]string, 0, len(q.RequiredSkillIDs))
	for _, id := range q.RequiredSkillIDs {
		skills = append(skills, id.String())
	}
	slices.Sort(skills)
	interests := slices.Clone(q.Interests)
	slices.Sort(interests)

	k := findCacheKey{
		Skills:        skills,
		Interests:     interests,
		MinExperience: string(q.MinExperience),
		MinHours:      q.MinHoursPerWeek,
		Limit:         q.Limit,
		MinScore:      q.MinScore,
	}
	if q.ProjectID != nil {
		k.Project = q.ProjectID.String()
	}
	return k
}

func (u *Matching) FindMatches(ctx context.Context, requesterID uuid.UUID, q matching.Query) ([]matching.ScoredCandidate, error) {
	q.RequesterID = requesterID
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	if len(q.RequiredSkillIDs) > 0 {
		missing, err := u.skills.MissingIDs(ctx, q.RequiredSkillIDs)
		if err != nil {
			return nil, deadline(err)
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: unknown skill id %s", domain.ErrInvalidArgument, joinIDs(missing))
		}
	}

	if q.ProjectID != nil {
		p, err := u.projects.GetByID(ctx, *q.ProjectID)
		if err != nil {
			return nil, deadline(err)
		}
		q.ProjectSkillIDs = p.RequiredSkills
	}

	key := cache.FindKey(requesterID, newFindCacheKey(q))
	var cached []matching.ScoredCandidate
	if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	requester, err := u.profiles.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, deadline(err)
	}
	pool, err := u.profiles.ListProfiles(ctx, u.opts.PoolSize)
	if err != nil {
		return nil, deadline(err)
	}
	existing, err := u.matches.ListForUser(ctx, requesterID)
	if err != nil {
		return nil, deadline(err)
	}

	started := time.Now()
	ranked, err := u.engine.Rank(ctx, requester, slices.Values(pool), existing, q)
	if err != nil {
		return nil, deadline(err)
	}
	u.logger.Debug("matches ranked",
		zap.String("requester_id", requesterID.String()),
		zap.Int("pool", len(pool)),
		zap.Int("results", len(ranked)),
		zap.Duration("elapsed", time.Since(started)),
	)

	if err := u.cache.SetJSON(ctx, key, ranked, u.opts.FindTTL); err != nil {
		u.logger.Debug("find cache write failed", zap.Error(err))
	}
	return ranked, nil
}

// Score returns the pairwise score of two users. It is symmetric, so both
// orders share one cache entry.
func (u *Matching) Score(ctx context.Context, a, b uuid.UUID) (float64, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return 0, fmt.Errorf("%w: both user ids are required", domain.ErrInvalidArgument)
	}

	key := cache.ScoreKey(a, b)
	var cached float64
	if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	pa, err := u.profiles.GetProfile(ctx, a)
	if err != nil {
		return 0, deadline(err)
	}
	pb := pa
	if b != a {
		if pb, err = u.profiles.GetProfile(ctx, b); err != nil {
			return 0, deadline(err)
		}
	}

	sc, err := u.engine.ScorePair(pa, pb)
	if err != nil {
		return 0, err
	}
	if err := u.cache.SetJSON(ctx, key, sc.Score, u.opts.ScoreTTL); err != nil {
		u.logger.Debug("score cache write failed", zap.Error(err))
	}
	return sc.Score, nil
}

// InvalidateUser drops the cached rankings of users whose match set changed.
func InvalidateUser(ctx context.Context, c Cache, logger *zap.Logger, userIDs ...uuid.UUID) {
	for _, id := range userIDs {
		p := cache.FindPattern(id)
		if err := c.DeleteByPattern(ctx, p); err != nil {
			logger.Debug("cache invalidation failed", zap.String("pattern", p), zap.Error(err))
		}
	}
}

// InvalidateProfile drops every cached ranking, because the user may appear as
// a candidate in anyone's, together with the user's pairwise scores. It runs
// whenever a profile enters the pool or changes.
func InvalidateProfile(ctx context.Context, c Cache, logger *zap.Logger, userID uuid.UUID) {
	patterns := append([]string{cache.FindAllPattern()}, cache.ScorePatterns(userID)...)
	for _, p := range patterns {
		if err := c.DeleteByPattern(ctx, p); err != nil {
			logger.Debug("cache invalidation failed", zap.String("pattern", p), zap.Error(err))
		}
	}
}

func joinIDs(ids []uuid.UUID) string {
	s := make([]string, 0, len(ids))
	for _, id := range ids {
		s = append(s, id.String())
	}
	return strings.Join(s, ", ")
}
