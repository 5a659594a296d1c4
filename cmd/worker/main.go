package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lingodrip/config"
	"lingodrip/internal/db"
	"lingodrip/internal/drip"
	"lingodrip/internal/mq"
	"lingodrip/internal/mqhandler"
	"lingodrip/internal/notify"
	redisclient "lingodrip/internal/redis"
	"lingodrip/internal/repository"
	"lingodrip/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting worker service...")

	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init producer", zap.Error(err))
	}
	defer producer.Close()

	// Scheduler core, sweeping on a timer
	store := repository.NewDripStore(dbConn)
	offsets, err := drip.ParseOffsets(cfg.Drip.UnlockTimes)
	if err != nil {
		logger.Fatal("bad unlock times", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.Drip.Timezone)
	if err != nil {
		logger.Fatal("bad timezone", zap.Error(err))
	}

	pool := drip.NewPool(store, logger)
	builder := drip.NewBuilder(store, pool, offsets, loc, logger)
	reconciler := drip.NewReconciler(store, builder, notify.NewMQBridge(producer), logger)
	lease := util.NewUserLease(rdb, time.Minute)
	sweeper := drip.NewSweeper(store, reconciler, lease, cfg.Drip.SweepInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)

	// Consumer side: unlock events become in-app notification rows
	notiRepo := repository.NewNotificationRepository(dbConn)
	deduper := util.NewDeduper(rdb, time.Hour)
	handler := mqhandler.NewUnlockHandler(notiRepo, deduper, logger)

	tipConsumer, err := mq.NewConsumer(cfg.MQ.URL, mq.RoutingKeyTipUnlocked, logger)
	if err != nil {
		logger.Fatal("failed to init tip consumer", zap.Error(err))
	}
	tipConsumer.SetHandler(handler.HandleTipUnlocked)
	go func() {
		if err := tipConsumer.StartConsuming(); err != nil {
			logger.Fatal("tip consumer failed", zap.Error(err))
		}
	}()
	defer tipConsumer.Close()

	dailyConsumer, err := mq.NewConsumer(cfg.MQ.URL, mq.RoutingKeyDailyCompleted, logger)
	if err != nil {
		logger.Fatal("failed to init daily consumer", zap.Error(err))
	}
	dailyConsumer.SetHandler(handler.HandleDailyCompleted)
	go func() {
		if err := dailyConsumer.StartConsuming(); err != nil {
			logger.Fatal("daily consumer failed", zap.Error(err))
		}
	}()
	defer dailyConsumer.Close()

	logger.Info("worker ready",
		zap.Duration("sweep_interval", cfg.Drip.SweepInterval),
	)

	<-ctx.Done()
	logger.Info("worker shutting down")
}
