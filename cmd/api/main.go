package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-notify-nosql/internal/application/dispatch"
	"github.com/go-notify-nosql/internal/application/notification"
	"github.com/go-notify-nosql/internal/application/realtime"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/infrastructure/dynamo"
	"github.com/go-notify-nosql/internal/infrastructure/email"
	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
	kafkainfra "github.com/go-notify-nosql/internal/infrastructure/kafka"
	"github.com/go-notify-nosql/internal/infrastructure/push"
	redisinfra "github.com/go-notify-nosql/internal/infrastructure/redis"
	s3infra "github.com/go-notify-nosql/internal/infrastructure/s3"
	"github.com/go-notify-nosql/internal/infrastructure/sns"
	"github.com/go-notify-nosql/internal/pkg/guard"
	transporthttp "github.com/go-notify-nosql/internal/transport/http"
	"github.com/go-notify-nosql/internal/transport/ws"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tables are provisioned by infrastructure code in production.
	dynamoClient := dynamo.NewClient(cfg)
	if !cfg.IsProduction() {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}
	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	unreadRepo := dynamo.NewUnreadRepo(dynamoClient, cfg.DynamoTables.Unread)
	connectionRepo := dynamo.NewConnectionRepo(dynamoClient, cfg.DynamoTables.Connections)

	// Sockets: local hub, optionally fronted by a Redis bus so any instance can reach any connection.
	hub := ws.NewHub()
	var (
		poster realtime.Poster = hub
		bus    ws.Subscriber
	)
	if cfg.Redis.Addr != "" {
		rc := redisinfra.NewClient(cfg.Redis)
		defer rc.Close()
		b := redisinfra.NewBus(rc, cfg.Redis.Prefix)
		poster, bus = b, b
	}

	registry := realtime.NewRegistry(connectionRepo)
	socketGuard := guard.New(guard.FromConfig("socket", cfg.Breaker, cfg.Dispatch.CallTimeout, domain.ErrGone))
	router := realtime.NewRouter(registry, poster, socketGuard)
	lifecycle := realtime.NewLifecycle(registry)

	// Dead-letter archive (optional).
	var kafkaDeadLetter kafkainfra.DeadLetter
	deps := dispatch.Deps{
		Store:  notificationRepo,
		Unread: unreadRepo,
		Echo:   router,
	}
	if cfg.DeadLetterBucket != "" {
		store := s3infra.NewDeadLetterStore(s3infra.NewClient(cfg), cfg.DeadLetterBucket)
		deps.DeadLetter = store
		kafkaDeadLetter = store
	}

	// Channels (each optional; a missing one is reported as skipped per target).
	if path := cfg.Push.FirebaseCredentialsPath; path != "" {
		if fcm, err := push.NewFCMFromFile(ctx, path, cfg.Push.ChunkSize); err == nil {
			deps.Push = fcm
		} else {
			slog.Warn("push channel not available", "err", err)
		}
	}
	if mailer, err := email.New(cfg.Email); err == nil {
		deps.Email = mailer
	} else {
		slog.Warn("email channel not available", "err", err)
	}
	if cfg.SNS.Enabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			deps.SMS = sender
		} else {
			slog.Warn("sms channel not available", "err", err)
		}
	}

	dispatcher := dispatch.New(deps, dispatch.Guards{
		Push:  guard.New(guard.FromConfig("push", cfg.Breaker, cfg.Dispatch.CallTimeout)),
		Email: guard.New(guard.FromConfig("email", cfg.Breaker, cfg.Dispatch.CallTimeout)),
		SMS:   guard.New(guard.FromConfig("sms", cfg.Breaker, cfg.Dispatch.CallTimeout)),
	}, dispatch.Options{
		Concurrency:        cfg.Dispatch.Concurrency,
		CallTimeout:        cfg.Dispatch.CallTimeout,
		RealtimeEcho:       cfg.Dispatch.RealtimeEcho,
		EmailTemplateAlias: cfg.Email.TemplateAlias,
	})

	// Event ingress (optional).
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafkainfra.NewConsumer(
			kafkainfra.NewReader(cfg.Kafka),
			kafkainfra.NewIngress(dispatcher, router),
			kafkaDeadLetter,
		)
		defer consumer.Close()
		go func() {
			slog.Info("kafka consumer starting", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
			if err := consumer.Run(ctx); err != nil {
				slog.Error("kafka consumer stopped", "err", err)
			}
		}()
	}

	httpDeps := &transporthttp.Deps{
		Notifications: notification.NewService(notificationRepo, unreadRepo),
		Dispatcher:    dispatcher,
		Realtime:      router,
		Socket:        ws.NewHandler(hub, lifecycle, bus, cfg.AllowedOrigins),
	}
	// JWT provider (optional; without keys every route is open, for local use only).
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		httpDeps.JWTProvider = p
	} else if cfg.IsProduction() {
		log.Fatalf("jwt provider: %v", err)
	} else {
		slog.Warn("JWT provider not available, authentication disabled", "err", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, httpDeps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped", "open_sockets", hub.Len())
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
