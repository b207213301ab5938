package routes

import (
	"time"

	"devmatch/internal/delivery/http/handler"
	"devmatch/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

// Handlers are the route groups served by the API.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Skills   *handler.SkillHandler
	Projects *handler.ProjectHandler
	Matches  *handler.MatchHandler
	// MatchesWS serves the realtime match feed. It authenticates on its own.
	MatchesWS fiber.Handler
}

type Registry struct {
	handlers       Handlers
	auth           *middleware.AuthMiddleware
	requestTimeout time.Duration
	maxTimeout     time.Duration
}

func NewRegistry(h Handlers, auth *middleware.AuthMiddleware, requestTimeout, maxTimeout time.Duration) *Registry {
	return &Registry{handlers: h, auth: auth, requestTimeout: requestTimeout, maxTimeout: maxTimeout}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerRealtime(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerRealtime(app *fiber.App) {
	if r.handlers.MatchesWS != nil {
		app.Get("/ws/matches", r.handlers.MatchesWS)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api", middleware.Timeout(r.requestTimeout, r.maxTimeout))

	if r.handlers.Auth != nil {
		r.handlers.Auth.RegisterRoutes(api.Group("/auth"), r.auth.Middleware())
	}

	protected := api.Group("", r.auth.Middleware())
	if r.handlers.Users != nil {
		r.handlers.Users.RegisterRoutes(protected)
	}
	if r.handlers.Skills != nil {
		r.handlers.Skills.RegisterRoutes(protected)
	}
	if r.handlers.Projects != nil {
		r.handlers.Projects.RegisterRoutes(protected)
	}
	if r.handlers.Matches != nil {
		r.handlers.Matches.RegisterRoutes(protected)
	}
}
