// Command server runs the loyalty login gateway: it resolves LINE identity
// tokens against the retail record store, provisions referred customers, and
// fronts the result over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loyalty-gateway/internal/backend"
	"loyalty-gateway/internal/guard"
	"loyalty-gateway/internal/login/handler"
	"loyalty-gateway/internal/login/metrics"
	"loyalty-gateway/internal/login/ports"
	"loyalty-gateway/internal/login/service"
	"loyalty-gateway/internal/platform/config"
	"loyalty-gateway/internal/platform/httpserver"
	"loyalty-gateway/internal/platform/logger"
	"loyalty-gateway/internal/platform/middleware"
	platformredis "loyalty-gateway/internal/platform/redis"
	"loyalty-gateway/pkg/platform/audit/publisher"
	"loyalty-gateway/pkg/platform/httputil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Error("configuration error", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Registration guard: Redis when configured, in-process otherwise.
	var registrationGuard ports.RegistrationGuard
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		registrationGuard = guard.NewRedis(redisClient.Client, guard.DefaultTTL, log)
		log.Info("registration guard using redis")
	} else {
		registrationGuard = guard.NewMemory(guard.DefaultTTL)
		log.Info("registration guard using in-process store")
	}

	// Audit sink: Kafka when brokers are configured, structured log otherwise.
	var auditPublisher ports.AuditPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := publisher.NewKafka(ctx, publisher.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(flushCtx); err != nil {
				log.Warn("audit flush on shutdown failed", "error", err)
			}
		}()
		auditPublisher = kafka
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	} else {
		auditPublisher = publisher.NewLog(log)
	}

	client, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithLogger(log),
		backend.WithTimeout(cfg.Backend.Timeout.Std()),
	)
	if err != nil {
		log.Error("backend client setup failed", "error", err)
		os.Exit(1)
	}

	directory := backend.NewDirectory(client)
	resolver, err := service.NewResolver(directory, directory, service.WithResolverLogger(log))
	exitOn(log, err)
	provisioner, err := service.NewProvisioner(backend.NewRegistrar(client), service.WithProvisionerLogger(log))
	exitOn(log, err)
	issuer, err := service.NewIssuer(backend.NewSessionMinter(client), service.WithIssuerLogger(log))
	exitOn(log, err)
	awarder, err := service.NewAwarder(backend.NewShopSettingsReader(client), backend.NewPointsLedger(client), service.WithAwarderLogger(log))
	exitOn(log, err)

	loginMetrics := metrics.New(prometheus.DefaultRegisterer)
	orchestrator, err := service.NewOrchestrator(resolver, provisioner, issuer, awarder,
		service.WithLogger(log),
		service.WithGuard(registrationGuard),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(loginMetrics),
	)
	exitOn(log, err)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	handler.New(orchestrator, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(redisClient, len(cfg.Kafka.Brokers) > 0))

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("loyalty gateway listening", "addr", cfg.Addr, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func healthz(redisClient *platformredis.Client, kafkaWired bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guardStore := "memory"
		auditSink := "log"
		if kafkaWired {
			auditSink = "kafka"
		}
		status := http.StatusOK
		if redisClient != nil {
			guardStore = "redis"
			if err := redisClient.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, map[string]string{
			"status": http.StatusText(status),
			"guard":  guardStore,
			"audit":  auditSink,
		})
	}
}

func exitOn(log *slog.Logger, err error) {
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
}
