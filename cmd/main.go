package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stagelink/backend/internal/engine"
	"github.com/stagelink/backend/internal/infrastructure/analytics"
	"github.com/stagelink/backend/internal/infrastructure/auth"
	"github.com/stagelink/backend/internal/infrastructure/configs"
	"github.com/stagelink/backend/internal/infrastructure/env"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/messaging"
	"github.com/stagelink/backend/internal/infrastructure/metrics"
	"github.com/stagelink/backend/internal/infrastructure/profanity"
	"github.com/stagelink/backend/internal/infrastructure/ratelimiter"
	"github.com/stagelink/backend/internal/infrastructure/tracing"
	"github.com/stagelink/backend/internal/infrastructure/ws"
	"github.com/stagelink/backend/internal/persistence/db"
	"github.com/stagelink/backend/internal/persistence/repository"
	"github.com/stagelink/backend/internal/presentation/api"
	healthHandler "github.com/stagelink/backend/internal/presentation/handler/health"
	liveHandler "github.com/stagelink/backend/internal/presentation/handler/live"
)

const (
	serviceName = "stagelink-live"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(cfg.Logging)

	mongoCfg := &db.MongoConfig{
		URI:               cfg.Mongo.URI,
		Database:          cfg.Mongo.Database,
		ConnectionTimeout: cfg.Mongo.ConnectionTimeout,
	}
	if mongoCfg.ConnectionTimeout <= 0 {
		mongoCfg.ConnectionTimeout = db.DefaultConnectionTimeout
	}
	mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.DisconnectMongo(context.Background(), mongoClient)

	database := db.GetDatabase(mongoClient, mongoCfg)

	interactionLogs := repository.NewInteractionLogRepository(database)
	repos := engine.Repositories{
		LiveEvents:      repository.NewLiveEventRepository(database),
		Polls:           repository.NewPollRepository(database),
		Questions:       repository.NewQuestionRepository(database),
		Icebreakers:     repository.NewIcebreakerRepository(database),
		Photos:          repository.NewPhotoRepository(database),
		Chat:            repository.NewChatMessageRepository(database),
		Events:          repository.NewEventRepository(database),
		InteractionLogs: interactionLogs,
	}

	for _, idx := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{
		repos.LiveEvents, repos.Polls, repos.Questions,
		repos.Icebreakers, repos.Photos, repos.Chat, interactionLogs,
	} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}

	var sink engine.AnalyticsSink
	if cfg.RabbitMQ.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq connected", nil)

		sink = analytics.NewPublisher(rabbitmq, logger)

		consumer := analytics.NewConsumer(rabbitmq, interactionLogs, logger)
		go func() {
			if err := consumer.Listen(); err != nil {
				logger.Error(logging.RabbitMQ, logging.Analytics, "analytics consumer stopped", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
			}
		}()
	} else {
		logger.Warn(logging.RabbitMQ, logging.Startup, "rabbitmq disabled, interaction records are not published", nil)
	}

	retention := analytics.NewRetention(interactionLogs, cfg.Retention.SweepInterval, cfg.Retention.MaxAge, logger)
	retention.Start()
	defer retention.Stop()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	registry := ws.NewRegistry()
	router := ws.NewRouter(registry, cfg.WS.RoomQueueSize, logger, m)
	defer router.Close()

	eng := engine.New(engine.Options{
		Repositories:    repos,
		Registry:        registry,
		Router:          router,
		Sink:            sink,
		Filter:          profanity.NewFilter(),
		Metrics:         m,
		Logger:          logger,
		ChatHistorySize: cfg.WS.ChatHistorySize,
	})

	reconciler := engine.NewReconciler(eng, cfg.Reconcile.Interval, logger)
	reconciler.Start()
	defer reconciler.Stop()

	tokenTable := auth.ParseTokenTable(env.GetString("STAGELINK_TOKENS", ""))
	verifier := auth.NewStaticVerifier(tokenTable)

	live := liveHandler.NewHandler(eng, verifier, cfg.WS, logger)
	healthH := healthHandler.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		StoreTTL:         cfg.RateLimiter.CacheTTL,
	})

	app := api.NewApplication(*cfg, live, healthH, logger, rl, promRegistry)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Shutdown, "server exited", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}
