package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/laporinpolisi/laporin-backend/internal/config"
	"github.com/laporinpolisi/laporin-backend/internal/handlers"
	"github.com/laporinpolisi/laporin-backend/internal/middleware"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Report     *handlers.ReportHandler
	User       *handlers.UserHandler
	Moderation *handlers.ModerationHandler
	Upload     *handlers.UploadHandler
}

// Setup registers every route. limiterStorage may be nil for in-memory limits.
func Setup(app *fiber.App, cfg *config.Config, users middleware.CallerResolver, h Handlers, limiterStorage fiber.Storage) {
	protected := middleware.JWTProtected(cfg, users)
	optional := middleware.OptionalAuth(cfg, users)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(rateLimit("api", 60, limiterStorage))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(rateLimit("auth", 10, limiterStorage))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", protected, h.Auth.Logout)

	reports := api.Group("/reports")
	reports.Get("/", optional, h.Report.List)
	reports.Post("/", protected, h.Report.Create)
	reports.Get("/:id", optional, h.Report.Get)
	reports.Post("/:id/like", protected, h.Report.ToggleLike)
	reports.Get("/:id/comments", h.Report.ListComments)
	reports.Post("/:id/comments", protected, h.Report.AddComment)
	reports.Post("/:id/share", protected, h.Report.Share)
	reports.Post("/:id/violations", protected, h.Report.ReportViolation)

	// Static segments before /:id
	userGroup := api.Group("/users")
	userGroup.Get("/search", h.User.Search)
	userGroup.Get("/me", protected, h.User.Me)
	userGroup.Patch("/me", protected, h.User.UpdateMe)
	userGroup.Get("/:id", h.User.Profile)
	userGroup.Get("/:id/reports", optional, h.Report.ListUserReports)

	admin := api.Group("/admin", protected, middleware.AdminRequired())
	admin.Get("/violations", h.Moderation.ListViolations)
	admin.Post("/violations/:id/review", h.Moderation.ReviewViolation)
	admin.Get("/stats", h.Moderation.Stats)
	admin.Post("/users/:id/toggle-admin", h.Moderation.ToggleAdmin)

	api.Post("/uploads", protected, h.Upload.Upload)

	if cfg.StaticDir != "" {
		app.Use(middleware.PageGate(cfg, users))
		app.Static("/", cfg.StaticDir, fiber.Static{Compress: true})
	}
}

// rateLimit keys by name and client IP so limiters sharing one storage stay apart.
func rateLimit(name string, max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return name + ":" + c.IP() },
		Storage:           storage,
	})
}
