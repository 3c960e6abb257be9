package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/handler"
	"github.com/mansoorceksport/trackhub/internal/middleware"
	"github.com/mansoorceksport/trackhub/internal/repository"
	"github.com/mansoorceksport/trackhub/internal/service"
	"github.com/mansoorceksport/trackhub/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	Media       domain.MediaStorage
	Events      domain.EventPublisher
	Mailer      domain.Mailer
	AuthClient  service.FirebaseAuthClient // nil disables social login
	Logger      *slog.Logger
}

// Services are the application services behind the HTTP API. Background
// jobs and the CLI use the same instances.
type Services struct {
	Tokens      *service.TokenService
	Accounts    *service.AccountService
	Auth        *service.AuthService
	Reviews     *service.ReviewService
	Trainers    *service.TrainerService
	Experiences *service.ExperienceService
	Gyms        *service.GymService
	Clients     *service.ClientService
	Sessions    *service.SessionService
	Limits      *service.LimitsService
	Exercises   *service.ExerciseService
	Workouts    *service.WorkoutService
	Plans       *service.PlanService
}

// NewServices wires repositories and services
func NewServices(deps AppDependencies) *Services {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Repositories
	cache := repository.NewRedisCacheRepository(deps.RedisClient)
	userRepo := repository.NewMongoUserRepository(deps.MongoDB)
	refreshTokenRepo := repository.NewMongoRefreshTokenRepository(deps.MongoDB)
	reviewRepo := repository.NewMongoReviewRepository(deps.MongoDB)
	trainerRepo := repository.NewCachedTrainerRepository(repository.NewMongoTrainerRepository(deps.MongoDB), cache, cfg.Redis.CacheTTL)
	experienceRepo := repository.NewMongoExperienceRepository(deps.MongoDB)
	gymRepo := repository.NewMongoGymRepository(deps.MongoDB)
	clientRepo := repository.NewMongoClientRepository(deps.MongoDB)
	linkRepo := repository.NewMongoTrainerOfClientRepository(deps.MongoDB)
	sessionRepo := repository.NewMongoWorkoutSessionRepository(deps.MongoDB)
	exerciseRepo := repository.NewMongoExerciseRepository(deps.MongoDB)
	workoutRepo := repository.NewMongoWorkoutRepository(deps.MongoDB)
	planRepo := repository.NewMongoPlanRepository(deps.MongoDB)
	catalogRepo := repository.NewCachedCatalogRepository(repository.NewMongoCatalogRepository(deps.MongoDB), cache, cfg.Redis.CacheTTL)
	limitsRepo := repository.NewMongoLimitsRepository(deps.MongoDB)

	// Services
	tokens := service.NewTokenService(cfg.JWT, refreshTokenRepo, userRepo)
	reviews := service.NewReviewService(reviewRepo, userRepo, deps.Events, logger)
	limits := service.NewLimitsService(limitsRepo, exerciseRepo, workoutRepo, planRepo, cfg.Limits)

	accounts := service.NewAccountService(service.AccountDeps{
		Users:          userRepo,
		Clients:        clientRepo,
		Trainers:       trainerRepo,
		Reviews:        reviews,
		Experiences:    experienceRepo,
		Gyms:           gymRepo,
		Links:          linkRepo,
		Sessions:       sessionRepo,
		Exercises:      exerciseRepo,
		Workouts:       workoutRepo,
		Plans:          planRepo,
		Limits:         limitsRepo,
		Tokens:         tokens,
		Media:          deps.Media,
		Mailer:         deps.Mailer,
		Events:         deps.Events,
		Cache:          cache,
		Logger:         logger,
		MaxAvatarMB:    cfg.Server.MaxUploadSizeMB,
		VerifyLinkBase: cfg.JWT.VerifyLinkBase,
	})

	contentDeps := service.ContentDeps{
		Exercises:  exerciseRepo,
		Workouts:   workoutRepo,
		Plans:      planRepo,
		Catalog:    catalogRepo,
		Users:      userRepo,
		Limits:     limits,
		Media:      deps.Media,
		Events:     deps.Events,
		Logger:     logger,
		MaxImageMB: cfg.Server.MaxUploadSizeMB,
		MaxVideoMB: cfg.Server.MaxVideoSizeMB,
	}

	return &Services{
		Tokens:      tokens,
		Accounts:    accounts,
		Auth:        service.NewAuthService(userRepo, accounts, tokens, deps.AuthClient),
		Reviews:     reviews,
		Trainers:    service.NewTrainerService(trainerRepo, userRepo, deps.Media),
		Experiences: service.NewExperienceService(experienceRepo, trainerRepo),
		Gyms:        service.NewGymService(gymRepo, trainerRepo),
		Clients:     service.NewClientService(clientRepo, linkRepo, trainerRepo, userRepo),
		Sessions:    service.NewSessionService(sessionRepo, trainerRepo, clientRepo, linkRepo),
		Limits:      limits,
		Exercises:   service.NewExerciseService(contentDeps),
		Workouts:    service.NewWorkoutService(contentDeps),
		Plans:       service.NewPlanService(contentDeps),
	}
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) (*fiber.App, *Services) {
	svc := NewServices(deps)
	cfg := deps.Config

	// Initialize handlers
	authHandler := handler.NewAuthHandler(svc.Auth, svc.Tokens)
	accountHandler := handler.NewAccountHandler(svc.Accounts)
	reviewHandler := handler.NewReviewHandler(svc.Reviews)
	trainerHandler := handler.NewTrainerHandler(svc.Trainers, svc.Experiences, svc.Gyms)
	clientHandler := handler.NewClientHandler(svc.Clients, svc.Sessions)
	exerciseHandler := handler.NewExerciseHandler(svc.Exercises)
	workoutHandler := handler.NewWorkoutHandler(svc.Workouts)
	planHandler := handler.NewPlanHandler(svc.Plans)
	limitsHandler := handler.NewLimitsHandler(svc.Limits)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TrackHub API",
		BodyLimit:    int(cfg.Server.MaxVideoSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(telemetry.FiberMiddleware())
	app.Use(telemetry.MetricsMiddleware())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "trackhub",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := app.Group("/v1")

	// The bearer token here is a Firebase ID token, so this route sits
	// before the API token check.
	v1.Post("/auth/firebase", authHandler.FirebaseLogin)

	v1.Use(middleware.Authenticate(cfg.JWT.Secret))
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Server.IdempotencyTTL))

	user := middleware.RequireUser()
	trainer := middleware.RequireTrainer()

	// ===========================================
	// TOKENS
	// ===========================================
	v1.Post("/token", authHandler.Login)
	v1.Post("/token/refresh", authHandler.Refresh)
	v1.Post("/token/verify", authHandler.Verify)

	// ===========================================
	// ACCOUNT
	// ===========================================
	v1.Post("/account", accountHandler.Register)
	v1.Post("/account/login", authHandler.Login)
	v1.Post("/account/logout", user, authHandler.Logout)
	v1.Get("/account", user, accountHandler.Me)
	v1.Put("/account", user, accountHandler.Update)
	v1.Delete("/account", user, accountHandler.Delete)
	v1.Post("/account/avatar", user, accountHandler.UploadAvatar)
	v1.Put("/account/avatar", user, accountHandler.UploadAvatar)
	v1.Delete("/account/avatar", user, accountHandler.DeleteAvatar)
	v1.Get("/account/:id", accountHandler.Get)

	v1.Post("/email/send", user, accountHandler.SendVerification)
	v1.Post("/email/verify", accountHandler.VerifyEmail)

	// ===========================================
	// REVIEWS
	// ===========================================
	v1.Get("/reviews", reviewHandler.List)
	v1.Post("/reviews", user, reviewHandler.Create)
	v1.Get("/reviews/:id", reviewHandler.Get)
	v1.Put("/reviews/:id", user, reviewHandler.Update)
	v1.Delete("/reviews/:id", user, reviewHandler.Delete)

	// ===========================================
	// TRAINERS
	// ===========================================
	v1.Get("/trainers/search", trainerHandler.Search)
	v1.Get("/trainers/me", trainer, trainerHandler.Mine)
	v1.Put("/trainers/me", trainer, trainerHandler.UpdateProfile)
	v1.Put("/trainers/me/work_hours", trainer, trainerHandler.SetWorkHours)
	v1.Put("/trainers/me/weekends", trainer, trainerHandler.SetWeekends)
	v1.Post("/trainers/me/breaks", trainer, trainerHandler.AddBreak)
	v1.Delete("/trainers/me/breaks/:id", trainer, trainerHandler.RemoveBreak)
	v1.Post("/trainers/me/holidays", trainer, trainerHandler.AddHoliday)
	v1.Delete("/trainers/me/holidays/:id", trainer, trainerHandler.RemoveHoliday)
	v1.Get("/trainers/me/clients", trainer, clientHandler.ListClients)
	v1.Get("/trainers/:id", trainerHandler.Get)
	v1.Get("/trainers/:id/experiences", trainerHandler.ListExperiences)
	v1.Get("/trainers/:id/gyms", trainerHandler.ListGyms)
	v1.Get("/work_hours/:trainer_id", trainerHandler.WorkHours)

	v1.Post("/experiences", trainer, trainerHandler.CreateExperience)
	v1.Put("/experiences/:id", trainer, trainerHandler.UpdateExperience)
	v1.Delete("/experiences/:id", trainer, trainerHandler.DeleteExperience)

	v1.Get("/gyms/:id", trainerHandler.GetGym)
	v1.Post("/gyms", trainer, trainerHandler.CreateGym)
	v1.Put("/gyms/:id", trainer, trainerHandler.UpdateGym)
	v1.Delete("/gyms/:id", trainer, trainerHandler.DeleteGym)

	// ===========================================
	// CLIENTS & SESSIONS
	// ===========================================
	clients := v1.Group("/clients/me", user)
	clients.Get("/trainers", clientHandler.ListTrainers)
	clients.Post("/trainers", clientHandler.AddTrainer)
	clients.Put("/trainers/:id", clientHandler.SetFavourite)
	clients.Delete("/trainers/:id", clientHandler.RemoveTrainer)

	sessions := v1.Group("/sessions", user)
	sessions.Get("/", clientHandler.ListSessions)
	sessions.Post("/", clientHandler.CreateSession)
	sessions.Get("/:id", clientHandler.GetSession)
	sessions.Put("/:id", clientHandler.RescheduleSession)
	sessions.Delete("/:id", clientHandler.CancelSession)

	// ===========================================
	// WORKOUT MANAGER
	// ===========================================
	v1.Get("/exercises/creation_data", exerciseHandler.CreationData)
	v1.Get("/exercises/published", exerciseHandler.ListPublished)

	exercises := v1.Group("/exercises", user)
	exercises.Get("/archived", exerciseHandler.ListArchived)
	exercises.Put("/archived/:id", exerciseHandler.ToggleArchived)
	exercises.Post("/published/:id", exerciseHandler.Publish)
	exercises.Delete("/published/:id", exerciseHandler.Unpublish)
	exercises.Post("/subscription/:id", exerciseHandler.Subscribe)
	exercises.Delete("/subscription/:id", exerciseHandler.Unsubscribe)
	exercises.Get("/", exerciseHandler.List)
	exercises.Post("/", exerciseHandler.Create)
	exercises.Get("/:id", exerciseHandler.Get)
	exercises.Put("/:id", exerciseHandler.Update)
	exercises.Delete("/:id", exerciseHandler.Delete)
	exercises.Get("/:id/originality", exerciseHandler.Originality)
	exercises.Post("/:id/share", exerciseHandler.Share)
	exercises.Delete("/:id/share/:user_id", exerciseHandler.Unshare)
	exercises.Post("/:id/preview", exerciseHandler.UploadPreview)
	exercises.Post("/:id/video", exerciseHandler.UploadVideo)

	v1.Get("/workouts/published", workoutHandler.ListPublished)

	workouts := v1.Group("/workouts", user)
	workouts.Get("/archived", workoutHandler.ListArchived)
	workouts.Put("/archived/:id", workoutHandler.ToggleArchived)
	workouts.Post("/published/:id", workoutHandler.Publish)
	workouts.Delete("/published/:id", workoutHandler.Unpublish)
	workouts.Post("/subscription/:id", workoutHandler.Subscribe)
	workouts.Delete("/subscription/:id", workoutHandler.Unsubscribe)
	workouts.Get("/", workoutHandler.List)
	workouts.Post("/", workoutHandler.Create)
	workouts.Get("/:id", workoutHandler.Get)
	workouts.Put("/:id", workoutHandler.Update)
	workouts.Delete("/:id", workoutHandler.Delete)
	workouts.Get("/:id/originality", workoutHandler.Originality)
	workouts.Post("/:id/share", workoutHandler.Share)
	workouts.Delete("/:id/share/:user_id", workoutHandler.Unshare)

	v1.Get("/weekly_plans/published", planHandler.ListPublished)

	plans := v1.Group("/weekly_plans", user)
	plans.Get("/archived", planHandler.ListArchived)
	plans.Put("/archived/:id", planHandler.ToggleArchived)
	plans.Post("/published/:id", planHandler.Publish)
	plans.Delete("/published/:id", planHandler.Unpublish)
	plans.Post("/subscription/:id", planHandler.Subscribe)
	plans.Delete("/subscription/:id", planHandler.Unsubscribe)
	plans.Get("/", planHandler.List)
	plans.Post("/", planHandler.Create)
	plans.Get("/:id", planHandler.Get)
	plans.Put("/:id", planHandler.Update)
	plans.Delete("/:id", planHandler.Delete)
	plans.Get("/:id/originality", planHandler.Originality)
	plans.Post("/:id/share", planHandler.Share)
	plans.Delete("/:id/share/:user_id", planHandler.Unshare)

	v1.Get("/limits/me", user, limitsHandler.Mine)

	return app, svc
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := handler.StatusOf(err)
	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(code).JSON(fiber.Map{
		"detail": err.Error(),
	})
}
