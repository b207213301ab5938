package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"devmatch/internal/delivery/http/handler"
	"devmatch/internal/delivery/http/middleware"
	"devmatch/internal/delivery/http/routes"
	"devmatch/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	container *Container
}

func New(c *Container) *App {
	cfg := c.Config
	f := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.HTTP.BodyLimit,
	})

	registerGlobalMiddleware(f, c.Logger)

	routes.NewRegistry(routes.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"database": c.DB.Ping,
		}),
		Auth:      handler.NewAuthHandler(c.AuthUC, cfg.Auth.SyncSecret),
		Users:     handler.NewUserHandler(c.UserUC),
		Skills:    handler.NewSkillHandler(c.SkillUC),
		Projects:  handler.NewProjectHandler(c.ProjectUC),
		Matches:   handler.NewMatchHandler(c.MatchingUC, c.MatchUC),
		MatchesWS: ws.NewHandler(c.Hub, c.JWT, c.Logger).HandleMatchesWS,
	}, middleware.NewAuthMiddleware(c.JWT), cfg.HTTP.RequestTimeout, cfg.HTTP.MaxRequestTimeout).Register(f)

	return &App{Fiber: f, container: c}
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

// Run serves HTTP until ctx is done, together with the websocket hub and, when
// configured, the in-process expiry sweep.
func (a *App) Run(ctx context.Context) error {
	cfg := a.container.Config
	logger := a.container.Logger

	addr, err := ListenAddr(cfg.HTTP.Port)
	if err != nil {
		return err
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() { a.container.Hub.Run(bgCtx) })
	if cfg.Match.ExpireInterval > 0 {
		wg.Go(func() { a.container.MatchUC.RunExpiry(bgCtx, cfg.Match.ExpireInterval) })
		logger.Info("match expiry sweep scheduled", zap.Duration("interval", cfg.Match.ExpireInterval))
	}
	defer func() {
		stopBackground()
		wg.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- a.Fiber.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := a.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
