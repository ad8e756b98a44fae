package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/PracticalMetal/major-notice/internal/events"
	"github.com/PracticalMetal/major-notice/internal/http/middleware"
	"github.com/PracticalMetal/major-notice/internal/service"
)

// Pinger reports whether the document store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth      service.AuthService
	Uploads   service.UploadService
	Documents service.DocumentService
	Dashboard service.DashboardService
	Events    *events.Hub

	// ImageLinkTTL bounds pre-signed image links. Zero uses the service default.
	ImageLinkTTL time.Duration
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Everything except health checks and the sign-up/sign-in/reset flow requires a session token.
func RegisterRoutes(app *fiber.App, db Pinger, svc Services, tokens middleware.TokenVerifier) {
	app.Get("/health", HealthCheck(db))
	// Backward-compatible simple liveness probe
	app.Get("/healthz", LivenessProbe())

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", SignUp(svc.Auth))
	authGroup.Post("/signin", SignIn(svc.Auth))
	authGroup.Post("/password-reset", RequestPasswordReset(svc.Auth))
	authGroup.Post("/password-reset/confirm", ConfirmPasswordReset(svc.Auth))

	requireAuth := middleware.Auth(tokens)
	noStore := middleware.NoStore()

	authGroup.Post("/signout", requireAuth, SignOut(svc.Auth))

	app.Get("/me", requireAuth, noStore, CurrentUser(svc.Auth))
	app.Patch("/me", requireAuth, noStore, UpdateProfile(svc.Auth))

	app.Get("/dashboard", requireAuth, noStore, Dashboard(svc.Dashboard))
	app.Get("/members", requireAuth, noStore, Members(svc.Dashboard))

	docs := app.Group("/documents", requireAuth, noStore)
	docs.Get("/", ListDocuments(svc.Documents))
	docs.Post("/", UploadDocument(svc.Uploads))
	docs.Get("/:id", GetDocument(svc.Documents))
	docs.Get("/:id/image", DocumentImage(svc.Documents))
	docs.Get("/:id/image/link", DocumentImageLink(svc.Documents, svc.ImageLinkTTL))
	docs.Put("/:id/priority", SelectDocument(svc.Documents))
	docs.Delete("/:id", DeleteDocument(svc.Documents))

	app.Get("/events", requireAuth, EventStream(svc.Events, DefaultKeepAlive))
}

// HealthCheck checks document store connectivity only.
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
