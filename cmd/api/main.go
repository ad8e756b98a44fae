package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PracticalMetal/major-notice/docs"
	"github.com/PracticalMetal/major-notice/internal/auth"
	"github.com/PracticalMetal/major-notice/internal/config"
	"github.com/PracticalMetal/major-notice/internal/events"
	handlers "github.com/PracticalMetal/major-notice/internal/http/handler"
	"github.com/PracticalMetal/major-notice/internal/http/middleware"
	"github.com/PracticalMetal/major-notice/internal/idgen"
	"github.com/PracticalMetal/major-notice/internal/logging"
	"github.com/PracticalMetal/major-notice/internal/ocr"
	"github.com/PracticalMetal/major-notice/internal/ocr/tesseract"
	"github.com/PracticalMetal/major-notice/internal/otel"
	"github.com/PracticalMetal/major-notice/internal/service"
	"github.com/PracticalMetal/major-notice/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Major Notice API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	logger := logging.New(os.Stdout, loc, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		fatal(logger, "failed to initialize tracing", err)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "failed to open document store", err)
	}
	defer st.close()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		fatal(logger, "failed to initialize object storage", err)
	}

	ids, err := idgen.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		fatal(logger, "failed to initialize id generator", err)
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ResetTokenTTL)
	if err != nil {
		fatal(logger, "failed to initialize tokens", err)
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(logger, "failed to register service metrics", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(logger, "failed to register http metrics", err)
	}

	var engine ocr.Engine = tesseract.New(cfg.OCR.Timeout)
	if cfg.OCR.Preprocess {
		engine = ocr.Preprocessing{Next: engine}
	}

	hub := events.NewHub(events.DefaultBuffer)

	uploads := service.NewUploadService(service.UploadDeps{
		OCR:     engine,
		Store:   blobs,
		URLs:    storage.URLResolver{BaseURL: cfg.Blob.PublicBaseURL, APIBaseURL: cfg.Blob.APIPublicURL},
		Users:   st.users,
		Orgs:    st.orgs,
		Docs:    st.docs,
		IDs:     ids,
		Events:  hub,
		Metrics: metrics,
		Logger:  logger,
	}, service.UploadOptions{
		Language: cfg.OCR.Language,
		MaxBytes: cfg.MaxUploadBytes,
		Location: loc,
	})

	svc := handlers.Services{
		Auth:      service.NewAuthService(st.users, tokens, service.LogMailer{Logger: logger}, logger, loc),
		Uploads:   uploads,
		Documents: service.NewDocumentService(blobs, st.docs, hub, logger),
		Dashboard: service.NewDashboardService(st.docs, st.orgs, st.users, loc),
		Events:    hub,

		ImageLinkTTL: cfg.Blob.PresignExpiry,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart overhead on top of the image itself.
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.LoggerWith(logger))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, st.ping, svc, tokens)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		logger.Info("server_shutdown", "status", "starting")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("server_shutdown", "status", "error", "error_message", err.Error())
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("server_start", "addr", addr, "store_backend", cfg.StoreBackend, "blob_backend", cfg.BlobBackend)
	if err := app.Listen(addr); err != nil {
		fatal(logger, "failed to start server", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error("tracing_shutdown_failed", "error_message", err.Error())
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error_message", err.Error())
	os.Exit(1)
}
