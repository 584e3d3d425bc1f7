package routes

import (
	"nexbank/internal/adapters/http/handlers"
	"nexbank/internal/adapters/http/middleware"
	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/config"
	"nexbank/internal/core/services"
	"nexbank/internal/pkg/mailer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the cron
// service so the caller controls its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	pendingTxRepo := repositories.NewPendingTransactionRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)

	// OTP delivery channel
	var sender mailer.Sender
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	}

	// Distributed OTP rate limiter (optional, fails open when unset)
	var limiter services.RateLimiter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = services.NewRedisRateLimiter(client, "")
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	profileService := services.NewProfileService(userRepo, accountRepo)
	pinService := services.NewPinService(userRepo, accountRepo)
	biometricService := services.NewBiometricService(userRepo, accountRepo)
	ledgerService := services.NewLedgerService(ledgerRepo)
	balanceService := services.NewBalanceService(accountRepo, ledgerService)
	otpService := services.NewOtpService(
		pendingTxRepo,
		userRepo,
		sender,
		limiter,
		cfg.Otp.ValiditySeconds,
		cfg.Otp.InitiatePerHour,
	)
	txService := services.NewTransactionService(
		profileService,
		pinService,
		biometricService,
		otpService,
		balanceService,
		accountRepo,
		pendingTxRepo,
	)
	officerService := services.NewOfficerService(userRepo, accountRepo)
	cronService := services.NewCronService(balanceService, pendingTxRepo, refreshTokenRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	accountHandler := handlers.NewAccountHandler(profileService, pinService, ledgerService)
	txHandler := handlers.NewTransactionHandler(txService)
	notificationHandler := handlers.NewNotificationHandler(ledgerService)
	officerHandler := handlers.NewOfficerHandler(officerService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, accountHandler, cfg)

	// Account routes (authenticated)
	accountRoutes := apiV1.Group("/accounts")
	accountRoutes.Use(middleware.AuthMiddleware(cfg))
	setupAccountRoutes(accountRoutes, accountHandler)

	// Transaction routes (authenticated)
	txRoutes := apiV1.Group("/transactions")
	txRoutes.Use(middleware.AuthMiddleware(cfg))
	setupTransactionRoutes(txRoutes, txHandler)

	// Notification routes (authenticated)
	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	setupNotificationRoutes(notificationRoutes, notificationHandler)

	// Officer routes (OFFICER role only)
	officerRoutes := apiV1.Group("/officer")
	officerRoutes.Use(middleware.AuthMiddleware(cfg))
	officerRoutes.Use(middleware.OfficerOnly())
	setupOfficerRoutes(officerRoutes, officerHandler)

	return cronService
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, accountHandler *handlers.AccountHandler, cfg *config.Config) {
	// Public routes (5 req/min/IP)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
	router.Post("/pin", middleware.AuthMiddleware(cfg), accountHandler.SetPin)
}

// setupAccountRoutes configures customer account routes
func setupAccountRoutes(router fiber.Router, handler *handlers.AccountHandler) {
	router.Get("/", handler.ListAccounts)
	router.Get("/:accountNo", handler.GetAccount)
	router.Get("/:accountNo/transactions", handler.GetTransactions)
}

// setupTransactionRoutes configures money-movement routes.
// Initiate and resend get the strict limiter to slow OTP spam; the
// per-user hourly budget is enforced again inside the service.
func setupTransactionRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	router.Post("/deposit", handler.Deposit)
	router.Post("/withdraw/initiate", middleware.StrictRateLimiter(), handler.InitiateWithdraw)
	router.Post("/transfer/initiate", middleware.StrictRateLimiter(), handler.InitiateTransfer)
	router.Post("/:id/confirm", handler.Confirm)
	router.Post("/:id/resend", middleware.StrictRateLimiter(), handler.Resend)
	router.Post("/:id/cancel", handler.Cancel)
}

// setupNotificationRoutes configures notification routes
func setupNotificationRoutes(router fiber.Router, handler *handlers.NotificationHandler) {
	router.Get("/", handler.List)
	router.Post("/:id/read", handler.MarkRead)
}

// setupOfficerRoutes configures back-office routes
func setupOfficerRoutes(router fiber.Router, handler *handlers.OfficerHandler) {
	router.Get("/users", handler.ListUsers)
	router.Get("/users/:id", handler.GetUser)
	router.Patch("/users/:id/kyc", handler.SetKyc)
	router.Patch("/users/:id/lock", handler.LockUser)
	router.Patch("/users/:id/unlock", handler.UnlockUser)

	router.Get("/accounts", handler.ListAccounts)
	router.Post("/accounts", handler.ProvisionAccount)
	router.Patch("/accounts/:accountNo/lock", handler.LockAccount)
	router.Patch("/accounts/:accountNo/unlock", handler.UnlockAccount)
}
