package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/ai"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/background"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/config"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/handlers"
	middlewareCustom "github.com/ezhulati/texaslobbyorg-sub001/internal/middleware"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/moderation"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/payments"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/ratelimit"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/routes"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/storage"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	lobbyistRepo := repositories.NewLobbyistRepository(db)
	claimRepo := repositories.NewClaimRepository(db)
	roleUpgradeRepo := repositories.NewRoleUpgradeRepository(db)
	mergeRepo := repositories.NewMergeRepository(db)
	suspensionRepo := repositories.NewSuspensionRepository(db)
	statsRepo := repositories.NewStatsRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	billRepo := repositories.NewBillRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)
	supportRepo := repositories.NewSupportRepository(db)
	mfaRepo := repositories.NewMFADeviceRepository(db)

	// Object storage for verification documents and profile photos
	minioClient, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize object storage", slog.Any("error", err))
		os.Exit(1)
	}
	documentsBucket := storage.NewBucket(minioClient, cfg.Storage.DocumentsBucket)
	photosBucket := storage.NewBucket(minioClient, cfg.Storage.PhotosBucket)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	for _, b := range []*storage.Bucket{documentsBucket, photosBucket} {
		if err := b.EnsureBucket(ctx); err != nil {
			logger.Warn("object storage bucket unavailable", slog.String("bucket", b.Name()), slog.Any("error", err))
		}
	}
	cancel()

	documentStore := storage.NewDocumentStore(documentsBucket)
	photoStore := storage.NewPhotoStore(photosBucket, cfg.Storage.PublicBaseURL)

	// Shared counter for the public issue form
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	reportLimiter := ratelimit.NewWindowLimiter(redisClient, "report-issue", cfg.Moderation.ReportIssuePerMinute, time.Minute)

	// Initialize token manager with composite signing on the per-user TokenKey
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
		userRepo,
	)

	mfaKey, err := hex.DecodeString(cfg.Auth.MFAEncryptionKey)
	if err != nil {
		logger.Error("MFA_ENCRYPTION_KEY must be hex encoded", slog.Any("error", err))
		os.Exit(1)
	}
	totpManager, err := auth.NewTOTPManager(mfaKey, cfg.Auth.MFAIssuer)
	if err != nil {
		logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
		os.Exit(1)
	}

	// AWS SES email service
	emailService, err := services.NewEmailService(context.Background(), cfg.Email, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	var extractor services.CriteriaExtractor
	if cfg.AI.AnthropicAPIKey != "" {
		extractor = ai.NewExtractor(cfg.AI, nil)
	} else {
		logger.Info("no ANTHROPIC_API_KEY set, AI search will use plain text search")
	}

	// Initialize services
	auditService := services.NewAuditService(auditRepo, logger)
	authService := services.NewAuthService(userRepo, tokenManager, logger)
	mfaService := services.NewMFAService(mfaRepo, totpManager, auditService, logger)
	profileService := services.NewProfileService(services.ProfileDeps{
		Profiles:     lobbyistRepo,
		Claims:       claimRepo,
		RoleUpgrades: roleUpgradeRepo,
		Merges:       mergeRepo,
		Users:        userRepo,
		Documents:    documentStore,
		Photos:       photoStore,
		Notifier:     emailService,
		Auditor:      auditService,
		Policy: moderation.Policy{
			MaxAttempts: cfg.Moderation.ResubmissionMaxAttempts,
			Cooldown:    cfg.Moderation.ResubmissionCooldown,
		},
		AdminURL: strings.TrimRight(cfg.Server.PublicURL, "/") + "/admin",
	}, logger)
	moderationService := services.NewModerationService(services.ModerationDeps{
		Lobbyists:    lobbyistRepo,
		Claims:       claimRepo,
		RoleUpgrades: roleUpgradeRepo,
		Merges:       mergeRepo,
		Users:        userRepo,
		Documents:    documentStore,
		Notifier:     emailService,
		Auditor:      auditService,
		PublicURL:    cfg.Server.PublicURL,
	}, logger)
	adminUserService := services.NewAdminUserService(userRepo, suspensionRepo, statsRepo, emailService, auditService, logger)
	adminLobbyistService := services.NewAdminLobbyistService(lobbyistRepo, auditService, logger)
	subscriptionService := services.NewSubscriptionService(userRepo, payments.NewGateway(cfg.Stripe, nil), &cfg.Stripe, emailService, logger)
	searchService := services.NewSearchService(lobbyistRepo, extractor, logger)
	billService := services.NewBillService(billRepo, emailService, logger)
	favoriteService := services.NewFavoriteService(favoriteRepo, lobbyistRepo, logger)
	supportService := services.NewSupportService(supportRepo, lobbyistRepo, emailService, logger)

	// Initialize handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, logger),
		MFA:          handlers.NewMFAHandler(mfaService, logger),
		Profile:      handlers.NewProfileHandler(profileService, logger),
		Moderation:   handlers.NewModerationHandler(moderationService, logger),
		Admin:        handlers.NewAdminHandler(adminUserService, adminLobbyistService, logger),
		Audit:        handlers.NewAuditHandler(auditService, logger),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, logger),
		Search:       handlers.NewSearchHandler(searchService, logger),
		Bills:        handlers.NewBillHandler(billService, favoriteService, logger),
		Support:      handlers.NewSupportHandler(supportService, logger),
	}

	// Bootstrap first admin user if configured
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Error("failed to ensure admin user", slog.Any("error", err))
		}
		cancel()
	} else {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
	}

	// Timed suspensions are lifted in the background
	expiryManager := background.NewSuspensionExpiryManager(suspensionRepo, logger, cfg.Moderation.SuspensionSweepInterval)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.ClientIP(&pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	router.Route("/api", func(r chi.Router) {
		routes.RegisterRoutes(r, h, routes.Guards{
			Tokens:        tokenManager,
			Users:         userRepo,
			MFA:           mfaService,
			ReportLimiter: reportLimiter,
			Logger:        logger,
		})
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start expiry sweep
	expiryCtx, expiryCancel := context.WithCancel(context.Background())
	defer expiryCancel()

	go expiryManager.Start(expiryCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	expiryCancel()
	expiryManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
