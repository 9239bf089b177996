package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-onboarding/internal/api/http/handlers"
	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/config"
	"github.com/spec-kit/employee-onboarding/internal/events"
	"github.com/spec-kit/employee-onboarding/internal/observability"
	"github.com/spec-kit/employee-onboarding/internal/repository"
	"github.com/spec-kit/employee-onboarding/internal/service"
	"github.com/spec-kit/employee-onboarding/internal/worker"
)

// Dependencies are the infrastructure pieces the API is assembled from.
type Dependencies struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Employees      repository.EmployeeRepository
	RateLimitStore auth.RateLimitStore
	Dispatcher     events.Dispatcher
	Checks         []handlers.DependencyCheck
	TokenOptions   []auth.TokenOption
}

// NewApp builds the fiber application with every route and middleware registered.
func NewApp(cfg config.Config, deps Dependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	rateStore := deps.RateLimitStore
	if rateStore == nil {
		rateStore = auth.NewMemoryRateLimitStore(nil)
	}

	tokenOpts := append([]auth.TokenOption{auth.WithServiceTTL(cfg.Services.TokenTTL())}, deps.TokenOptions...)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL(), tokenOpts...)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	limiter := auth.NewRateLimiter(rateStore, cfg.Services.RateLimitMaxRequests, cfg.Services.RateLimitWindow())
	services := auth.NewServiceAuthenticator(cfg.Services.APIKeys, limiter, tokens)
	authenticator := auth.NewAuthenticator(tokens, deps.Employees)

	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(service.AuthDependencies{
		Employees:  deps.Employees,
		Hasher:     hasher,
		Tokens:     tokens,
		Services:   services,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	employeeService := service.NewEmployeeService(deps.Employees, hasher, dispatcher, logger)
	mcpService := service.NewMCPService(employeeService, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ProxyHeader:           cfg.App.ProxyHeader,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, cfg.App.RequestTimeout(), cfg.App.IsProduction())
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Metrics, deps.Checks...),
		Auth:           handlers.NewAuthHandler(authService),
		Employees:      handlers.NewEmployeesHandler(employeeService),
		MCP:            handlers.NewMCPHandler(mcpService),
		AuthMiddleware: auth.NewMiddleware(authenticator, services),
	})
	return app
}
