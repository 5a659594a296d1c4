package main

import (
	"time"

	"go.uber.org/zap"

	"lingodrip/config"
	"lingodrip/internal/api"
	"lingodrip/internal/db"
	"lingodrip/internal/drip"
	"lingodrip/internal/mq"
	"lingodrip/internal/notify"
	"lingodrip/internal/repository"
	"lingodrip/internal/service"
	"lingodrip/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting api service...")

	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	offsets, err := drip.ParseOffsets(cfg.Drip.UnlockTimes)
	if err != nil {
		logger.Fatal("bad unlock times", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.Drip.Timezone)
	if err != nil {
		logger.Fatal("bad timezone", zap.Error(err))
	}

	// Notification bridge; the api runs without MQ if the broker is down
	// at boot, unlocks still commit.
	var bridge notify.Bridge = notify.Noop{}
	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		logger.Warn("MQ unavailable, notifications disabled", zap.Error(err))
	} else {
		defer producer.Close()
		bridge = notify.NewMQBridge(producer)
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	tipRepo := repository.NewTipRepository(dbConn)
	quizRepo := repository.NewQuizRepository(dbConn)
	interactionRepo := repository.NewInteractionRepository(dbConn)
	store := repository.NewDripStore(dbConn)

	// Scheduler core
	pool := drip.NewPool(store, logger)
	builder := drip.NewBuilder(store, pool, offsets, loc, logger)
	reconciler := drip.NewReconciler(store, builder, bridge, logger)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	quizService := service.NewQuizService(quizRepo, userRepo)
	feedService := service.NewFeedService(store, reconciler, tipRepo, interactionRepo, loc)

	// Handlers
	authHandler := api.NewAuthHandler(authService)
	quizHandler := api.NewQuizHandler(quizService)
	feedHandler := api.NewFeedHandler(feedService)
	tipHandler := api.NewTipHandler(feedService)

	router := api.NewRouter(authHandler, quizHandler, feedHandler, tipHandler, cfg.JWT.Secret)

	logger.Info("api listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
