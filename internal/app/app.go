package app

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"stockwatch/internal/config"
	deliveryhttp "stockwatch/internal/delivery/http"
	"stockwatch/internal/infra/db"
	"stockwatch/internal/infra/log"
	"stockwatch/internal/infra/mailbox"
	"stockwatch/internal/infra/polygon"
	"stockwatch/internal/infra/twelvedata"
	"stockwatch/internal/usecase"
)

type App struct {
	server    *deliveryhttp.Server
	scheduler *usecase.AlertScheduler
	logger    *zap.Logger
	mongo     *mongo.Client
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(cfg.AlertTimezone)
	if err != nil {
		return nil, fmt.Errorf("load alert timezone: %w", err)
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	mongoClient, err := mailbox.Connect(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect mail outbox: %w", err)
	}

	userRepo := db.NewUserRepository(dbConn)
	thresholdRepo := db.NewThresholdRepository(dbConn)

	chartClient := twelvedata.NewClient(cfg.TwelveDataBaseURL, cfg.TwelveDataAPIKey, cfg.TwelveDataTimeout, logger)
	referenceClient := polygon.NewClient(cfg.PolygonBaseURL, cfg.PolygonAPIKey, cfg.PolygonTimeout, logger)

	outbox := mailbox.NewOutbox(mongoClient, cfg.MongoDatabase, cfg.MongoMailCollection, logger)
	if err := outbox.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure mail outbox indexes", zap.Error(err))
	}

	userUC := usecase.NewUserUsecase(userRepo)
	thresholdUC := usecase.NewThresholdUsecase(thresholdRepo)
	indicesUC := usecase.NewIndicesUsecase(chartClient, referenceClient, logger)

	scheduler := usecase.NewAlertScheduler(
		thresholdRepo,
		chartClient,
		userUC,
		outbox,
		cfg.AlertCheckInterval,
		location,
		cfg.AlertConcurrency,
		logger,
	)

	server := deliveryhttp.NewServer(cfg.HTTPAddr, cfg.JWTSecret, userUC, thresholdUC, indicesUC, logger)

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{
		server:    server,
		scheduler: scheduler,
		logger:    logger,
		mongo:     mongoClient,
		cleanupFn: cleanup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("stockwatch service starting")
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start alert scheduler: %w", err)
	}

	a.logger.Info("stockwatch service started")
	return a.server.Run(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("stockwatch service shutting down")
	a.scheduler.Stop()

	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	if a.mongo != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Disconnect(disconnectCtx); err != nil {
			a.logger.Warn("failed to disconnect mail outbox", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
