package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devmatch/internal/config"
	dbpostgres "devmatch/internal/database/postgres"
	"devmatch/internal/domain/matching"
	"devmatch/internal/domain/user"
	"devmatch/internal/infrastructure/cache"
	"devmatch/internal/infrastructure/gemini"
	"devmatch/internal/infrastructure/github"
	"devmatch/internal/pkg/jwt"
	"devmatch/internal/repository"
	"devmatch/internal/usecase"
	"devmatch/internal/ws"

	"go.uber.org/zap"
)

// Container owns every long-lived dependency of the service.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB    *dbpostgres.Pool
	Cache *cache.Redis
	JWT   *jwt.HMACService
	Hub   *ws.Hub

	Engine *matching.Engine

	Users    user.Repository
	Tokens   user.RefreshTokenRepository
	Profiles repository.ProfileRepository
	Skills   repository.SkillRepository
	Projects repository.ProjectRepository
	Matches  repository.MatchRepository

	AuthUC     *usecase.Auth
	UserUC     *usecase.User
	SkillUC    *usecase.Skill
	ProjectUC  *usecase.Project
	MatchingUC *usecase.Matching
	MatchUC    *usecase.Matches
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout+5*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(connectCtx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Cache:  cache.NewRedis(ctx, cfg.Redis, logger),
		JWT: jwt.NewHMACService(
			cfg.JWT.AccessSecret,
			cfg.JWT.RefreshSecret,
			cfg.JWT.AccessExpiresIn,
			cfg.JWT.RefreshExpiresIn,
		),
		Hub: ws.NewHub(logger),
	}

	policy := matching.FilterPolicy{AllowRematchAfterReject: cfg.Matching.AllowRematchAfterReject}
	c.Engine, err = matching.NewEngine(cfg.Matching.Weights, policy, cfg.Matching.Workers, logger)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("matching engine: %w", err)
	}

	c.Users = repository.NewPostgresUserRepository(db)
	c.Tokens = repository.NewPostgresRefreshTokenRepository(db)
	c.Profiles = repository.NewPostgresProfileRepository(db)
	c.Skills = repository.NewPostgresSkillRepository(db)
	c.Projects = repository.NewPostgresProjectRepository(db)
	c.Matches = repository.NewPostgresMatchRepository(db)

	c.AuthUC = usecase.NewAuthUsecase(c.Users, c.Tokens, c.JWT, c.Cache, logger)
	c.UserUC = usecase.NewUserUsecase(c.Users, c.Skills, c.importer(), c.Cache, logger)
	c.SkillUC = usecase.NewSkillUsecase(c.Skills, c.Cache)
	c.ProjectUC = usecase.NewProjectUsecase(c.Projects, c.Skills, c.Cache, logger)
	c.MatchingUC = usecase.NewMatchingUsecase(c.Engine, c.Profiles, c.Matches, c.Projects, c.Skills, c.Cache, usecase.MatchingOptions{
		PoolSize: cfg.Matching.PoolSize,
		FindTTL:  cfg.Redis.TTL,
		ScoreTTL: cfg.Redis.ScoreTTL,
	}, logger)
	c.MatchUC = usecase.NewMatchUsecase(c.Engine, c.Matches, c.Profiles, c.Projects, c.Users, c.Cache, c.Hub, c.explainer(ctx), usecase.MatchOptions{
		Policy:      policy,
		ExpireAfter: cfg.Match.ExpireAfter,
	}, logger)

	return c, nil
}

func (c *Container) importer() *github.Importer {
	var renderer github.PageRenderer
	if c.Config.GitHub.Headless {
		renderer = github.ChromeRenderer{UserAgent: c.Config.GitHub.UserAgent, Timeout: c.Config.GitHub.Timeout}
	}
	return github.NewImporter(c.Config.GitHub, renderer, c.Logger)
}

// explainer is nil unless AI explanations are switched on and a key is set;
// matches then keep the computed explanation.
func (c *Container) explainer(ctx context.Context) usecase.Explainer {
	if !c.Config.Match.ExplainWithAI {
		return nil
	}
	if strings.TrimSpace(c.Config.Gemini.APIKey) == "" {
		c.Logger.Warn("match.explain_with_ai is set but gemini.api_key is empty, using computed explanations")
		return nil
	}
	gen, err := gemini.NewGenerator(ctx, c.Config.Gemini.APIKey, c.Config.Gemini.Model)
	if err != nil {
		c.Logger.Warn("gemini unavailable, using computed explanations", zap.Error(err))
		return nil
	}
	c.Logger.Info("ai match explanations enabled", zap.String("model", gen.Model()))
	return gemini.NewExplainer(gen, c.Config.Gemini.Timeout, c.Logger)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
