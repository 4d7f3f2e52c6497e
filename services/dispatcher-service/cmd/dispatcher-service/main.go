package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/opskit/incident-events/libs/db"
	"github.com/opskit/incident-events/libs/httpx"
	"github.com/opskit/incident-events/libs/kafkax"
	otelx "github.com/opskit/incident-events/libs/otel"
	"github.com/opskit/incident-events/libs/runtime"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/config"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/consumer"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/deadletter"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/directory"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/handlers"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/inbox"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/metrics"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/notify"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/ops"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.SlogLevel())

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	readyChecks := []runtime.ReadyCheck{
		{Name: "kafka", Check: kafkax.ReadyCheck(cfg.Kafka.Brokers)},
	}

	var (
		deadLetters deadletter.Store
		eventInbox  inbox.Inbox
	)
	if cfg.DatabaseURL != "" {
		if err := db.Migrate(cfg.MigrationsURL, cfg.DatabaseURL); err != nil {
			logger.Error("db migration failed", "err", err)
			panic(err)
		}
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		deadLetters = deadletter.NewPostgresStore(pool)
		eventInbox = inbox.NewRepository(pool)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	} else {
		logger.Warn("DATABASE_URL not set, dead letters and dedupe are in-memory")
		deadLetters = deadletter.NewMemoryStore()
		eventInbox = inbox.NewMemory()
	}

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	sinks := metrics.MultiSink{metrics.NewPromSink(reg)}
	var stats ops.StatsSource
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		redisSink := metrics.NewRedisSink(rdb)
		sinks = append(sinks, redisSink)
		stats = redisSink
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	var notifier notify.Notifier
	switch strings.ToLower(cfg.Notifier) {
	case "webhook":
		notifier = notify.NewWebhookSender(cfg.Webhook.URL, cfg.Webhook.Token, cfg.Webhook.Timeout)
	case "noop":
		notifier = notify.NewNoopSender()
	case "smtp":
		notifier = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	default:
		logger.Warn("unknown notifier, using smtp", "notifier", cfg.Notifier)
		notifier = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	}

	dir := directory.New(logger, cfg.Directory.BaseURL, cfg.Directory.Token, cfg.Directory.Timeout,
		cfg.Directory.Watchers, cfg.Directory.OnCall)

	chain := handlers.NewChain(logger, recorder,
		handlers.NewNotification(logger, notifier, dir, cfg.AdminEmails),
		handlers.NewEscalation(logger, notifier, dir, cfg.LeadEmails),
		handlers.NewMetrics(logger, sinks),
	)

	// Refuse to start against an unreachable broker; a dispatcher that
	// cannot consume is not degraded, it is down.
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = kafkax.ReadyCheck(cfg.Kafka.Brokers)(checkCtx)
	cancel()
	if err != nil {
		logger.Error("kafka unreachable at startup", "err", err, "brokers", cfg.Kafka.Brokers)
		panic(err)
	}

	eventConsumer := consumer.New(logger, consumer.Config{
		Brokers:           cfg.Kafka.Brokers,
		GroupID:           cfg.Kafka.GroupID,
		Topic:             cfg.Kafka.Topic,
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialBackoff:    cfg.Retry.InitialBackoff,
		BackoffMultiplier: cfg.Retry.Multiplier,
		ProcessTimeout:    cfg.ProcessTimeout,
	}, consumer.Deps{
		Chain:       chain,
		Inbox:       eventInbox,
		DeadLetters: deadLetters,
		Recorder:    recorder,
	})
	go eventConsumer.Run(ctx)
	logger.Info("consumer starting",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"group_id", cfg.Kafka.GroupID,
	)

	opsHandler := ops.New(deadLetters, stats)
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/deadletters", opsHandler.ListDeadLetters)
	mux.HandleFunc("/api/stats", opsHandler.Stats)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "dispatcher")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("dispatcher stopped")
}
