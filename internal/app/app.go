package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook_backend/database"
	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/config"
	"tourbook_backend/internal/email"
	"tourbook_backend/internal/handlers"
	"tourbook_backend/internal/logger"
	"tourbook_backend/internal/metrics"
	"tourbook_backend/internal/middleware"
	"tourbook_backend/internal/models"
	"tourbook_backend/internal/repositories"
	"tourbook_backend/internal/routes"
	"tourbook_backend/internal/services"
	"tourbook_backend/internal/validator"
	"tourbook_backend/internal/workers"
	"tourbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Run поднимает HTTP-сервер и блокируется до его остановки
func Run() {
	cfg := loadConfig()

	gormDB := openDatabase(cfg)
	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	container, err := initializeServices(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	if err := seedFirstAdmin(context.Background(), cfg, container.users, container.credentials); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	sweepInterval, _ := cfg.ResetTokenSweepInterval()
	var recorder workers.ClearedRecorder
	if appMetrics != nil {
		recorder = appMetrics
	}
	workers.NewResetTokenWorker(container.users, sweepInterval, recorder).Start(workerCtx)

	ginRouter := SetupRouter(cfg, container.ServiceContainer, appMetrics)

	address := cfg.Address()
	logger.Info(fmt.Sprintf("App running on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// Migrate только применяет схему и завершается
func Migrate() error {
	cfg := loadConfig()
	gormDB := openDatabase(cfg)

	if err := database.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("Migrations completed successfully")
	return nil
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	logger.Init(cfg.Server.Env)
	apperrors.Configure(cfg.Server.Env)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	return cfg
}

func openDatabase(cfg *config.Config) *gorm.DB {
	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")
	return gormDB
}

// serviceDeps - сервисы плюс зависимости, нужные при старте
type serviceDeps struct {
	*services.ServiceContainer
	users       repositories.UserRepository
	credentials *services.CredentialStore
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) (*serviceDeps, error) {
	issuer, err := auth.NewSessionIssuer(auth.TokenConfig{
		Secret:    cfg.JWT.Secret,
		TTL:       cfg.TokenTTL(),
		CookieTTL: cfg.CookieTTL(),
	})
	if err != nil {
		return nil, err
	}

	mailer := newEmailProvider(cfg)

	userRepo := repositories.NewUserRepository(gormDB)
	userResources := repositories.NewResourceRepository[models.User](gormDB)
	credentials := services.NewCredentialStore(auth.NewBcryptHasher())

	authService := services.NewAuthService(userRepo, credentials, issuer, mailer,
		services.WithTemplates(email.NewTemplateManager()),
	)
	userService := services.NewUserService(userResources, userRepo, credentials)

	return &serviceDeps{
		ServiceContainer: &services.ServiceContainer{
			AuthService: authService,
			UserService: userService,
		},
		users:       userRepo,
		credentials: credentials,
	}, nil
}

func newEmailProvider(cfg *config.Config) email.Provider {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("EMAIL_HOST is not set. Emails will be written to the log.")
		return email.NewLogProvider()
	}
	return email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	})
}

// SetupRouter собирает gin с middleware, хэндлерами и маршрутами.
// m == nil отключает метрики.
func SetupRouter(cfg *config.Config, container *services.ServiceContainer, m *metrics.Metrics) *gin.Engine {
	baseHandler := handlers.NewBaseHandler(validator.New())
	appHandlers := &handlers.AppHandlers{
		AuthHandler: handlers.NewAuthHandler(baseHandler, container.AuthService, cfg.IsProduction(),
			handlers.WithPublicURL(cfg.PublicBaseURL())),
		UserHandler: handlers.NewUserHandler(baseHandler, container.UserService),
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	if m != nil {
		router.Use(m.Middleware())
		router.GET(cfg.Metrics.Path, m.Handler())
	}

	routes.RegisterRoutes(router, appHandlers, container.AuthService)
	return router
}

// seedFirstAdmin создает администратора из конфигурации, если его еще нет
func seedFirstAdmin(ctx context.Context, cfg *config.Config, users repositories.UserRepository, credentials *services.CredentialStore) error {
	adminEmail := cfg.FirstAdmin.Email
	adminPassword := cfg.FirstAdmin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	_, err := users.FindByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	admin := &models.User{
		Name:  cfg.FirstAdmin.Name,
		Email: adminEmail,
		Role:  models.UserRoleAdmin,
	}
	if err := credentials.SetPassword(admin, adminPassword, adminPassword, time.Now()); err != nil {
		return fmt.Errorf("invalid admin password: %w", err)
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", admin.Email, "user_id", admin.ID)
	return nil
}
