package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"prehab/prehab-app/internal/api"
	"prehab/prehab-app/internal/config"
	"prehab/prehab-app/internal/repository/mongo"
	"prehab/prehab-app/internal/service"
	"prehab/prehab-app/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log.Info().Msg("starting prehab server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureTaskIndexes(ctx, appDB.Collection("tasks"))
		mongo.EnsureMealIndexes(ctx, appDB.Collection("meals"))
		mongo.EnsureConstraintTypeIndexes(ctx, appDB.Collection("constraint_types"))
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("templates"))
		mongo.EnsurePrehabIndexes(ctx, appDB.Collection("prehabs"))
		mongo.EnsureScheduledItemIndexes(ctx, appDB.Collection("scheduled_items"))
		mongo.EnsureUploadIndexes(ctx, appDB.Collection("uploads"))
		log.Info().Msg("index creation completed")
	}()

	// --- Initialize Storage ---
	mediaStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media storage")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	taskRepo := mongo.NewMongoTaskRepository(appDB)
	mealRepo := mongo.NewMongoMealRepository(appDB)
	constraintRepo := mongo.NewMongoConstraintTypeRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	prehabRepo := mongo.NewMongoPrehabRepository(appDB)
	itemRepo := mongo.NewMongoScheduledItemRepository(appDB)
	uploadRepo := mongo.NewMongoUploadRepository(appDB)
	txManager := mongo.NewMongoTransactionManager(dbClient)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	doctorService := service.NewDoctorService(userRepo, constraintRepo, prehabRepo, itemRepo)
	patientService := service.NewPatientService(userRepo, prehabRepo, itemRepo)
	catalogService := service.NewCatalogService(userRepo, taskRepo, mealRepo, constraintRepo, uploadRepo, mediaStorage)
	templateService := service.NewTemplateService(userRepo, templateRepo, taskRepo, mealRepo)
	prehabService := service.NewPrehabService(userRepo, templateRepo, prehabRepo, itemRepo, txManager)

	// --- Router ---
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret,
		authService, doctorService, patientService, catalogService, templateService, prehabService)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen and serve failed")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
