// Package server assembles the HTTP API: middleware stack, routes and the
// per route authentication and permission checks.
package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/handlers/api"
	"github.com/khanghh/kcentral/internal/logs"
	"github.com/khanghh/kcentral/internal/mail"
	"github.com/khanghh/kcentral/internal/middlewares"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/model"
	"github.com/khanghh/kcentral/params"
)

type Services struct {
	Users       *users.UserService
	Groups      *users.GroupService
	Permissions *users.PermissionService
	Agents      *logs.AgentService
	Events      *logs.EventService
	Tokens      *auth.TokenService
	MailSender  mail.MailSender
}

type Config struct {
	BaseURL      string
	AllowOrigins []string
	// AccessLog writes one line per request through the fiber logger.
	AccessLog bool
	// RateLimitMax caps login and recovery requests per client in each
	// RateLimitWindow. Zero disables the limit.
	RateLimitMax    int
	RateLimitWindow time.Duration
	// RateLimitStorage keeps the limiter counters, nil keeps them in process.
	RateLimitStorage fiber.Storage
	Metrics          *middlewares.Metrics
}

func New(config Config, services Services) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	app.Use(recover.New())
	if config.Metrics != nil {
		app.Use(config.Metrics.Handler())
	}
	if config.AccessLog {
		app.Use(logger.New())
	}
	allowOrigins := config.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(allowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupAPIRoutes(app.Group("/api"), config, services)
	return app
}

func newRateLimiter(config Config) fiber.Handler {
	if config.RateLimitMax <= 0 {
		return func(ctx *fiber.Ctx) error {
			return ctx.Next()
		}
	}
	return limiter.New(limiter.Config{
		Max:        config.RateLimitMax,
		Expiration: config.RateLimitWindow,
		Storage:    config.RateLimitStorage,
		KeyGenerator: func(ctx *fiber.Ctx) string {
			return params.RateLimitKeyPrefix + ctx.IP()
		},
		LimitReached: func(ctx *fiber.Ctx) error {
			return api.NewError(fiber.StatusTooManyRequests, api.MsgTooManyRequests)
		},
	})
}

// setupAPIRoutes registers every endpoint. Checks are attached to routes
// rather than the group so that a request with an unsupported method gets
// 405 before any authentication.
func setupAPIRoutes(router fiber.Router, config Config, services Services) {
	// handlers
	var (
		authHandler       = api.NewAuthHandler(services.Users, services.Tokens)
		registerHandler   = api.NewRegisterHandler(services.Users)
		recoverHandler    = api.NewRecoverHandler(services.Users, services.Tokens, services.MailSender, config.BaseURL)
		userHandler       = api.NewUserHandler(services.Users)
		groupHandler      = api.NewGroupHandler(services.Groups)
		permissionHandler = api.NewPermissionHandler(services.Permissions)
		agentHandler      = api.NewAgentHandler(services.Agents)
		eventHandler      = api.NewEventHandler(services.Events)
	)

	// middlewares
	var (
		rateLimit    = newRateLimiter(config)
		authenticate = middlewares.Authenticate(middlewares.AuthConfig{
			Users:  services.Users,
			Tokens: services.Tokens,
		})
		authenticateReset = middlewares.Authenticate(middlewares.AuthConfig{
			Users:         services.Users,
			Tokens:        services.Tokens,
			AllowRecovery: true,
		})
	)
	guard := func(resource model.Resource) []fiber.Handler {
		return []fiber.Handler{authenticate, middlewares.RequirePermission(resource)}
	}

	router.Post("/login", rateLimit, authHandler.PostLogin)
	router.Post("/refresh", authHandler.PostRefresh)
	router.Post("/register", registerHandler.PostRegister)
	router.Post("/recover", rateLimit, recoverHandler.PostRecover)
	router.Post("/reset", authenticateReset, recoverHandler.PostReset)

	userRoutes := guard(model.ResourceUser)
	router.Get("/users", append(userRoutes, userHandler.GetUsers)...)
	router.Post("/users", append(userRoutes, userHandler.PostUser)...)
	router.Get("/users/:id", append(userRoutes, userHandler.GetUser)...)
	router.Put("/users/:id", append(userRoutes, userHandler.PutUser)...)
	router.Patch("/users/:id", append(userRoutes, userHandler.PutUser)...)
	router.Delete("/users/:id", append(userRoutes, userHandler.DeleteUser)...)

	groupRoutes := guard(model.ResourceGroup)
	router.Get("/groups", append(groupRoutes, groupHandler.GetGroups)...)
	router.Post("/groups", append(groupRoutes, groupHandler.PostGroup)...)
	router.Get("/groups/:id", append(groupRoutes, groupHandler.GetGroup)...)
	router.Put("/groups/:id", append(groupRoutes, groupHandler.PutGroup)...)
	router.Patch("/groups/:id", append(groupRoutes, groupHandler.PutGroup)...)
	router.Delete("/groups/:id", append(groupRoutes, groupHandler.DeleteGroup)...)

	permRoutes := guard(model.ResourcePermission)
	router.Get("/permissions", append(permRoutes, permissionHandler.GetPermissions)...)
	router.Get("/permissions/:id", append(permRoutes, permissionHandler.GetPermission)...)

	agentRoutes := guard(model.ResourceAgent)
	router.Get("/agents", append(agentRoutes, agentHandler.GetAgents)...)
	router.Post("/agents", append(agentRoutes, agentHandler.PostAgent)...)
	router.Get("/agents/:id", append(agentRoutes, agentHandler.GetAgent)...)
	router.Put("/agents/:id", append(agentRoutes, agentHandler.PutAgent)...)
	router.Patch("/agents/:id", append(agentRoutes, agentHandler.PutAgent)...)
	router.Delete("/agents/:id", append(agentRoutes, agentHandler.DeleteAgent)...)

	eventRoutes := guard(model.ResourceEvent)
	router.Get("/events", append(eventRoutes, eventHandler.GetEvents)...)
	router.Post("/events", append(eventRoutes, eventHandler.PostEvent)...)
	router.Get("/events/:id", append(eventRoutes, eventHandler.GetEvent)...)
	router.Put("/events/:id", append(eventRoutes, eventHandler.PutEvent)...)
	router.Patch("/events/:id", append(eventRoutes, eventHandler.PutEvent)...)
	router.Delete("/events/:id", append(eventRoutes, eventHandler.DeleteEvent)...)
}
