package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pertepiece/backend/internal/config"
	"github.com/pertepiece/backend/internal/handlers"
	"github.com/pertepiece/backend/internal/middleware"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Declarations *handlers.DeclarationHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
	Legal        *handlers.LegalHandler
}

func Setup(app *fiber.App, cfg *config.Config, roles middleware.RoleLookup, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Legal pages accepted at sign-up
	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)

	// Auth - public, stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", h.Auth.SignUp)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/confirm", h.Auth.Confirm)
	auth.Post("/recover", h.Auth.Recover)
	auth.Post("/password/forgot", h.Auth.ForgotPassword)

	// Session routes; a recovery session may use these
	api.Post("/auth/logout", middleware.JWTProtected(cfg), h.Auth.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), h.Auth.Me)
	api.Put("/auth/password", middleware.JWTProtected(cfg), h.Auth.UpdatePassword)

	api.Get("/document-types", h.Declarations.DocumentTypes)

	// Citizen declarations
	declarations := api.Group("/declarations",
		middleware.JWTProtected(cfg),
		middleware.NoRecovery(),
		middleware.Idempotent(30*time.Minute),
	)
	declarations.Get("/", h.Declarations.List)
	declarations.Post("/", h.Declarations.Create)
	declarations.Get("/:id", h.Declarations.Get)
	declarations.Patch("/:id", h.Declarations.Update)
	declarations.Delete("/:id", h.Declarations.Delete)
	declarations.Post("/:id/found", h.Declarations.MarkFound)

	// Administration panel
	admin := api.Group("/admin",
		middleware.JWTProtected(cfg),
		middleware.NoRecovery(),
		middleware.AdminRequired(roles, cfg),
	)
	admin.Get("/declarations", h.Admin.ListDeclarations)
	admin.Put("/declarations/:id/status", h.Admin.SetStatus)
	admin.Post("/declarations/:id/found", h.Admin.MarkFound)
	admin.Delete("/declarations/:id", h.Admin.DeleteDeclaration)
	admin.Get("/stats", h.Admin.Stats)
	admin.Get("/users", h.Admin.Users)
	admin.Delete("/users/:id/declarations", h.Admin.DeleteUserData)
	admin.Get("/map", h.Admin.Map)
	admin.Get("/reports/pdf", h.Admin.ReportPDF)
}
