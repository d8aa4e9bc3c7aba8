package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storefront/internal/accounts"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
	"storefront/internal/store/mongostore"
	"storefront/internal/tracing"
)

type repositories interface {
	store.OrderRepository
	store.UserRepository
	store.AuditRepository
}

func main() {
	config.Load()
	log := logging.New(config.AppEnv.LogLevel)
	slog.SetDefault(log)

	if err := run(log, config.AppEnv); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	repo, ping, closeStore, err := openStore(log, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notifiers := []notify.Notifier{}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Info("telegram notifications enabled")
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := notify.NewKafkaWriter(cfg.KafkaBrokers)
		defer writer.Close()
		notifiers = append(notifiers, notify.NewKafkaPublisher(writer, cfg.KafkaTopic))
		log.Info("kafka notifications enabled", "topic", cfg.KafkaTopic)
	}
	dispatcher := notify.NewDispatcher(log, m, cfg.NotifyQueueSize, notifiers...)
	recorder := audit.NewRecorder(repo, cfg.AuditQueueSize, m, log)

	// Workers outlive the request context so that queued items are flushed
	// after the server has stopped accepting requests.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		recorder.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		dispatcher.Run(workerCtx)
	}()

	issuer := auth.NewIssuer(cfg.JWTSecret)
	deps := handlers.Deps{
		Orders: orders.NewService(repo, dispatcher, m, log),
		Payments: payments.NewService(repo, dispatcher, m, log, payments.Config{
			Providers:      payments.DefaultProviders(cfg.PaymeSecret, cfg.ClickSecret),
			RedirectBase:   cfg.PaymentRedirectBase,
			ReconcileTotal: cfg.PaymentReconcileAmount,
		}),
		Accounts: accounts.NewService(repo, issuer, log),
		Audit:    recorder,
		AuditLog: audit.NewQuery(repo),
		Metrics:  m,
		Ping:     ping,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Metrics(m),
	)
	handlers.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      2 * cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			stopWorkers()
			workers.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	stopWorkers()
	workers.Wait()
	log.Info("shutdown complete")
	return nil
}

func openStore(log *slog.Logger, cfg config.Config) (repositories, func(context.Context) error, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil, func() {}, nil
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		return nil, nil, nil, err
	}
	db := client.Database(cfg.DBName)
	log.Info("mongodb connected", "db", db.Name())

	ensureIndexes(log, db)

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return mongostore.New(db), database.Pinger(client), closeFn, nil
}

func ensureIndexes(log *slog.Logger, db *mongo.Database) {
	if err := database.EnsureUserIndexes(db, log); err != nil {
		log.Warn("user index warning", "err", err)
	}
	if err := database.EnsureOrderIndexes(db, log); err != nil {
		log.Warn("order index warning", "err", err)
	}
	if err := database.EnsureAuditIndexes(db, log); err != nil {
		log.Warn("audit index warning", "err", err)
	}
}
