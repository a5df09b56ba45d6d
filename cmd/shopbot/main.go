package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	protoactor "github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"

	"github.com/example/shopbot/gateway"
	"github.com/example/shopbot/pkg/access"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/notify"
	"github.com/example/shopbot/pkg/reminder"
	"github.com/example/shopbot/pkg/repository"
	"github.com/example/shopbot/pkg/shop"
	"github.com/example/shopbot/pkg/store"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting shop service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Open the store and build the schema. A schema failure here is
	// fatal: the shop cannot run without its tables.
	st, err := store.New(mysql.Open(cfg.MySQL.DSN()), logger.Named("store"))
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer st.Close()

	if err := st.Init(); err != nil {
		logger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional attachments: order cache and audit trail.
	var redisRepo *repository.RedisRepository
	if cfg.Redis.Addr != "" {
		redisRepo = repository.NewRedisRepository(&cfg.Redis)
		defer redisRepo.Close()
		if err := redisRepo.Ping(ctx); err != nil {
			logger.Warn("Redis connection failed, continuing without order cache", zap.Error(err))
			redisRepo = nil
		} else {
			logger.Info("Redis connected successfully")
		}
	}

	var mongoRepo *repository.MongoRepository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err = repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB connection failed, continuing without audit trail", zap.Error(err))
			mongoRepo = nil
		} else {
			defer mongoRepo.Close(context.Background())
		}
	}

	policy := access.NewPolicy(cfg.Shop.AdminRoleID)
	engine := shop.NewEngine(st, policy, redisRepo, mongoRepo, logger.Named("engine"))

	// Notification delivery actor.
	system := protoactor.NewActorSystem()
	webhook := notify.NewWebhook(cfg.Shop.CallbackURL, cfg.Shop.DeliveryTimeout, logger.Named("webhook"))
	deliverer, err := notify.NewActorDeliverer(system, webhook, logger, cfg.Shop.DeliveryTimeout)
	if err != nil {
		logger.Fatal("Failed to start notification actor", zap.Error(err))
	}
	defer deliverer.Stop()

	// Gateway
	gw := gateway.NewGateway(cfg, engine, logger.Named("gateway"))
	gw.SetupRoutes()

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	// The reminder loop starts only after the schema is in place and
	// the gateway is serving.
	loop := reminder.NewLoop(st, webhook, deliverer, cfg.Shop.ReminderInterval, cfg.Shop.PaymentAddress, logger.Named("reminder"))
	loop.Start(ctx)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	cancel()
	logger.Info("Service stopped")
}
