package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/config"
	deliveryHttp "github.com/prog-nayeem/appointment-scheduler/internal/delivery/http"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/handler"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/middleware"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/cache"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"
	"github.com/prog-nayeem/appointment-scheduler/internal/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/service"
	"github.com/prog-nayeem/appointment-scheduler/internal/usecase"
	"github.com/prog-nayeem/appointment-scheduler/pkg/jwt"
	"github.com/prog-nayeem/appointment-scheduler/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	app.Log = NewLogger(cfg.App.LogLevel)
	app.Log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, app.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, app.Log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	app.Server = initializeServer(cfg, app.Log, db, redisClient)

	return app, nil
}

// NewLogger builds the JSON logrus logger used across the process.
func NewLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) *http.Server {
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Repositories
	transactor := database.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Services
	tokenStore := service.NewRedisTokenStore(redisClient, log)
	var slotCache service.SlotCache = service.NoopSlotCache{}
	if cfg.Scheduling.SlotCacheTTL > 0 {
		slotCache = service.NewRedisSlotCache(redisClient, log, cfg.Scheduling.SlotCacheTTL)
	}
	auditService := service.NewAuditService(log, auditLogRepo)

	// Scheduling core
	slotResolver := usecase.NewSlotResolver(availabilityRepo, appointmentRepo, cfg.Scheduling.SlotDuration)
	bookingService := usecase.NewBookingService(log, transactor, userRepo, availabilityRepo, appointmentRepo, cfg.Scheduling.SlotDuration)

	// Usecases
	authUsecase := usecase.NewAuthUsecase(log, userRepo, jwtService, tokenStore, auditService)
	userUsecase := usecase.NewUserUsecase(log, userRepo)
	availabilityUsecase := usecase.NewAvailabilityUsecase(log, transactor, userRepo, availabilityRepo, slotCache, auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, userRepo, appointmentRepo, slotResolver, bookingService, slotCache, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, auditLogRepo)

	// Handlers
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.App.Env)
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	userHandler := handler.NewUserHandler(userUsecase)
	availabilityHandler := handler.NewAvailabilityHandler(log, availabilityUsecase, customValidator, cfg.Scheduling.BookingMaxAttempts)
	appointmentHandler := handler.NewAppointmentHandler(log, appointmentUsecase, customValidator, cfg.Scheduling.BookingMaxAttempts)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)

	router := deliveryHttp.NewRouter(
		log,
		healthHandler,
		authHandler,
		userHandler,
		availabilityHandler,
		appointmentHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
	)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	go func() {
		app.Log.WithFields(logrus.Fields{
			"port":          app.Config.App.Port,
			"env":           app.Config.App.Env,
			"slot_duration": app.Config.Scheduling.SlotDuration.String(),
		}).Info("Server starting")
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
