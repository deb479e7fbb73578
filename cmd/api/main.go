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
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/config"
	"github.com/noah-isme/insight-go-api/internal/database"
	"github.com/noah-isme/insight-go-api/internal/handler"
	"github.com/noah-isme/insight-go-api/internal/middleware"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/repository"
	"github.com/noah-isme/insight-go-api/internal/router"
	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/pkg/ai"
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
		&models.Student{},
		&models.Report{},
		&models.StudySession{},
		&models.StudyPlan{},
		&models.StrategyRecord{},
		&models.Prediction{},
		&models.Achievement{},
		&models.StudentAchievement{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is the fan-out path only; the API stays up without it.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, report events will not be published")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	var generator ai.Generator
	if cfg.OpenAIAPIKey != "" {
		openaiGenerator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:        cfg.OpenAIAPIKey,
			HighModel:     cfg.HighTierModel,
			StandardModel: cfg.StandardModel,
			Logger:        logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai generator: %v", err)
		}
		generator = openaiGenerator
	} else {
		logger.Warn().Msg("openai api key missing, analysis drafting disabled")
		generator = ai.UnavailableGenerator{}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	reportRepo := repository.NewReportRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	strategyRepo := repository.NewStrategyRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	studyPlanRepo := repository.NewStudyPlanRepository(db)

	contextService := service.NewContextService(studentRepo, reportRepo, sessionRepo, redisClient, cfg.ContextCacheTTL, cfg.DefaultSessionDuration, logger)
	predictionService := service.NewPredictionService(predictionRepo, reportRepo, cfg.Reconciler.AccuracyTolerancePct, logger)
	strategyService := service.NewStrategyService(strategyRepo, cfg.Miner, logger)
	achievementService := service.NewAchievementService(achievementRepo, reportRepo, studyPlanRepo, logger)
	reportService := service.NewReportService(studentRepo, reportRepo, strategyRepo, predictionService, strategyService, achievementService, validate, natsConn, "insight.report.saved", logger)
	analysisService := service.NewAnalysisService(studentRepo, contextService, strategyService, service.NewTierPolicy(cfg.Routing), generator, logger)
	seedService := service.NewSeedService(achievementRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	reportHandler := handler.NewReportHandler(reportService, logger)
	contextHandler := handler.NewContextHandler(contextService, logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, validate, logger)
	predictionHandler := handler.NewPredictionHandler(predictionService, logger)
	strategyHandler := handler.NewStrategyHandler(strategyService, validate, logger)
	achievementHandler := handler.NewAchievementHandler(achievementService, validate, logger)
	seedHandler := handler.NewSeedHandler(seedService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ReportHandler:      reportHandler,
		ContextHandler:     contextHandler,
		AnalysisHandler:    analysisHandler,
		PredictionHandler:  predictionHandler,
		StrategyHandler:    strategyHandler,
		AchievementHandler: achievementHandler,
		SeedHandler:        seedHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
