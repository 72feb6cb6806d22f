package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"sharebite/internal/config"
	"sharebite/internal/database"
	"sharebite/internal/flash"
	"sharebite/internal/handlers"
	"sharebite/internal/middleware"
	"sharebite/internal/repositories"
	"sharebite/internal/services"
	"sharebite/internal/views"
	"sharebite/pkg/rabbitmq"
	"sharebite/pkg/redisstore"
)

// Dependencies are the storage and infrastructure backends of the app.
// DB is nil when the in-memory repositories are used; Publisher and
// SessionStorage are optional.
type Dependencies struct {
	Users          repositories.UserRepository
	Donations      repositories.DonationRepository
	DB             *gorm.DB
	Publisher      services.EventPublisher
	SessionStorage fiber.Storage
}

// NewApp wires services, handlers and middleware into a Fiber app.
func NewApp(cfg *config.Config, deps Dependencies) (*fiber.App, *services.AuthService, error) {
	engine, err := views.New()
	if err != nil {
		return nil, nil, err
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(deps.Users, cfg.SecretKey, cfg.SessionTTL)
	donationService := services.NewDonationService(deps.Donations, deps.Publisher)
	flashes := flash.New(deps.SessionStorage, cfg.SessionTTL, cfg.IsProduction())

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, flashes, cfg.IsProduction())
	donationHandler := handlers.NewDonationHandler(donationService, flashes)

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "sharebite",
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(middleware.StructuredLogger(slog.Default()))
	app.Use(recover.New())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(views.Static()),
		MaxAge: 3600,
	}))

	// --- Operational Endpoints ---
	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// --- Routes ---
	app.Use(middleware.LoadIdentity(authService))
	authHandler.RegisterRoutes(app)
	donationHandler.RegisterRoutes(app)

	return app, authService, nil
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, dbStatus, code := "healthy", "memory", fiber.StatusOK
		if db != nil {
			dbStatus = "connected"
			if err := database.Ping(c.UserContext(), db, 2*time.Second); err != nil {
				slog.ErrorContext(c.UserContext(), "health check failed", "error", err)
				status, dbStatus, code = "unhealthy", "unreachable", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
		})
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// --- Initialize Repositories ---
	deps := Dependencies{}
	if cfg.DBDriver == config.DriverMemory {
		users := repositories.NewInMemoryUserRepository()
		deps.Users = users
		deps.Donations = repositories.NewInMemoryDonationRepository(users)
		slog.Warn("using in-memory storage; data is lost on restart")
	} else {
		db, err := database.Open(cfg)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer database.Close(db)
		deps.DB = db
		deps.Users = repositories.NewGORMUserRepository(db)
		deps.Donations = repositories.NewGORMDonationRepository(db)
	}

	// --- Initialize Redis Session Storage ---
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		storage := redisstore.New(client, "sharebite:session:")
		defer storage.Close()
		deps.SessionStorage = storage
	}

	// --- Initialize RabbitMQ Client ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			slog.Error("failed to initialize rabbitmq client", "error", err)
			os.Exit(1)
		}
		defer mqClient.Close()
		deps.Publisher = mqClient

		if err := mqClient.ConsumeDonationEvents(rabbitmq.LogDonationEvent); err != nil {
			slog.Error("failed to start rabbitmq consumer", "error", err)
		}
	}

	app, _, err := NewApp(cfg, deps)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	// --- Start HTTP Server ---
	slog.Info("starting server", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DBDriver)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(cfg.Port)
	}()

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server gracefully stopped")
}
