package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/config"
	"github.com/noah-isme/qpflow-api/internal/database"
	"github.com/noah-isme/qpflow-api/internal/handler"
	"github.com/noah-isme/qpflow-api/internal/middleware"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
	"github.com/noah-isme/qpflow-api/internal/router"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserPrivilege{},
		&models.Session{},
		&models.Department{},
		&models.Course{},
		&models.CourseRoleAssignment{},
		&models.FacultyRoleAssignment{},
		&models.Submission{},
		&models.SubmissionDocument{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, dashboard caching disabled")
	}

	store, err := buildFileStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize file storage: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	resolver := service.NewRoleResolver(userRepo, assignmentRepo, catalogRepo)

	auditService := service.NewAuditService(auditRepo, cfg.AuditRetention, logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, validate, logger)
	adminService := service.NewAdminService(userRepo, catalogRepo, assignmentRepo, auditService, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, catalogRepo, userRepo, auditService, validate, logger)
	queueService := service.NewQueueService(submissionRepo, assignmentRepo, catalogRepo, redisClient, cfg.DashboardCacheTTL, logger)
	submissionService := service.NewSubmissionService(submissionRepo, documentRepo, catalogRepo, resolver, auditService, store, queueService, validate, logger)
	reviewService := service.NewReviewService(submissionRepo, resolver, auditService, queueService, logger)
	exportService := service.NewExportService(submissionRepo, auditRepo, logger)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	if err := adminService.EnsureBootstrapAdmin(bootstrapCtx, cfg.BootstrapAdminName, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		cancelBootstrap()
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}
	cancelBootstrap()

	authHandler := handler.NewAuthHandler(authService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, queueService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	adminHandler := handler.NewAdminHandler(adminService, logger)
	auditHandler := handler.NewAuditHandler(auditService, exportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:        authHandler,
		SubmissionHandler:  submissionHandler,
		ReviewHandler:      reviewHandler,
		AssignmentHandler:  assignmentHandler,
		AdminHandler:       adminHandler,
		AuditHandler:       auditHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		IdentityMiddleware: middleware.LoadIdentity(userRepo),
		AdminOnly:          middleware.RequirePrivilege(models.PrivilegeAdmin),
		LoginRateLimit:     middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildFileStore(cfg config.Config, logger zerolog.Logger) (service.FileStore, error) {
	if cfg.StorageDriver == "cloudinary" {
		return storage.NewCloudinary(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return storage.NewLocal(cfg.StorageLocalDir, logger)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
