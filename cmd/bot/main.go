package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/cleaner"
	"repost_cleaner_bot/internal/config"
	"repost_cleaner_bot/internal/domain"
	"repost_cleaner_bot/internal/feature/owner"
	"repost_cleaner_bot/internal/feature/support"
	"repost_cleaner_bot/internal/feature/user"
	"repost_cleaner_bot/internal/health"
	"repost_cleaner_bot/internal/logging"
	"repost_cleaner_bot/internal/session"
	"repost_cleaner_bot/internal/store"
	"repost_cleaner_bot/internal/telegram"
)

const (
	mongoConnectTimeout     = 10 * time.Second
	mongoIndexTimeout       = 5 * time.Second
	mongoDisconnectTimeout  = 5 * time.Second
	bootstrapTimeout        = 5 * time.Second
	telegramShutdownTimeout = 10 * time.Second
	healthShutdownTimeout   = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	logging.Info("configuration loaded", logging.Fields{
		"event":         "startup",
		"store_backend": cfg.StoreBackend,
	})
	logging.WithContext(logging.Context{
		ChatID: cfg.OwnerChatID,
		Event:  "owner_configured",
	}).Debug("dashboard restricted to owner chat")
	logger.WithField("event", "config_summary").Debug("resolved configuration:\n" + config.FormatRedacted(cfg))

	backend, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("storage setup error")
		fmt.Fprintf(os.Stderr, "storage setup error: %v\n", err)
		os.Exit(1)
	}

	docs := store.NewDocuments(backend, logger)
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), bootstrapTimeout)
	if _, err := docs.EnsureDefaults(bootstrapCtx, domain.Defaults()); err != nil {
		cancelBootstrap()
		logger.WithError(err).Error("document bootstrap error")
		fmt.Fprintf(os.Stderr, "document bootstrap error: %v\n", err)
		os.Exit(1)
	}
	cancelBootstrap()

	repo := domain.NewRepository(docs)

	dispatcher, err := telegram.NewDispatcher(telegram.Deps{
		OwnerChatID: cfg.OwnerChatID,
		Repository:  repo,
		Sessions:    session.NewManager(),
		Users:       user.NewRegistrar(repo, logger),
		Support:     support.NewDesk(repo, logger),
		Broadcaster: owner.NewBroadcaster(repo, logger),
		Cleaner:     cleaner.NewClient(cfg.CleanerURL, nil, logger),
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Error("dispatcher setup error")
		fmt.Fprintf(os.Stderr, "dispatcher setup error: %v\n", err)
		os.Exit(1)
	}

	tgClient, err := telegram.NewClient(cfg, logger, telegram.WithDispatcher(dispatcher))
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	healthServer := health.NewServer(cfg.HTTPPort, repo, logger)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithField("event", "health_error").WithError(err).Error("health server failed")
		}
	}()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping telegram polling")
	case <-tgDone:
		logging.Warn("telegram client stopped before shutdown signal", logging.Fields{"event": "telegram_stopped_early"})
	}

	cancelTelegram()

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithError(err).Error("health server shutdown error")
	}
	cancelHealth()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := closeStorage(shutdownCtx); err != nil {
		logger.WithError(err).Error("storage close error")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

// openStorage builds the configured document backend and the function that
// releases it on shutdown.
func openStorage(cfg config.Config, logger *logrus.Entry) (store.Backend, func(context.Context) error, error) {
	if !cfg.UsesMongo() {
		backend, err := store.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}

		logger.WithFields(logging.Fields{
			"event":    "storage_ready",
			"data_dir": backend.Dir(),
		}).Info("using file storage")

		return backend, func(context.Context) error { return nil }, nil
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connection: %w", err)
	}

	logger.WithFields(logging.Fields{
		"event":    "mongo_connect",
		"mongo_db": cfg.MongoDB,
	}).Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	err = mongoManager.EnsureBaseIndexes(indexCtx)
	cancelIndexes()
	if err != nil {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		_ = mongoManager.Close(closeCtx)
		cancelClose()
		return nil, nil, fmt.Errorf("mongo index setup: %w", err)
	}

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	closeMongo := func(ctx context.Context) error {
		if err := mongoManager.Close(ctx); err != nil {
			return err
		}
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
		return nil
	}

	return store.NewMongoBackend(mongoManager.Documents(), mongoManager), closeMongo, nil
}
