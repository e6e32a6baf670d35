package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/repository/memory"
	"github.com/mamadbah2/rental/internal/repository/mongodb"
	"github.com/mamadbah2/rental/internal/repository/postgres"
	"github.com/mamadbah2/rental/internal/repository/sheets"
	"github.com/mamadbah2/rental/internal/scheduler"
	"github.com/mamadbah2/rental/internal/server/handlers"
	"github.com/mamadbah2/rental/internal/server/middleware"
	"github.com/mamadbah2/rental/internal/server/router"
	"github.com/mamadbah2/rental/internal/service/access"
	"github.com/mamadbah2/rental/internal/service/account"
	"github.com/mamadbah2/rental/internal/service/agreement"
	"github.com/mamadbah2/rental/internal/service/analytics"
	"github.com/mamadbah2/rental/internal/service/expense"
	"github.com/mamadbah2/rental/internal/service/handover"
	"github.com/mamadbah2/rental/internal/service/ledger"
	"github.com/mamadbah2/rental/internal/service/maintenance"
	"github.com/mamadbah2/rental/internal/service/notify"
	"github.com/mamadbah2/rental/internal/service/occupancy"
	"github.com/mamadbah2/rental/internal/service/payment"
	"github.com/mamadbah2/rental/internal/service/property"
	"github.com/mamadbah2/rental/internal/service/utility"
	"github.com/mamadbah2/rental/pkg/clients/billboard"
	"github.com/mamadbah2/rental/pkg/clients/fcm"
	"github.com/mamadbah2/rental/pkg/clients/razorpay"
	"github.com/mamadbah2/rental/pkg/clients/whatsapp"
	"github.com/mamadbah2/rental/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	m := metrics.New()

	var push notify.Pusher
	if cfg.Firebase.Enabled() {
		sender, err := fcm.NewSender(ctx, cfg.Firebase)
		if err != nil {
			baseLogger.Fatal("failed to init fcm sender", zap.Error(err))
		}
		push = sender
		baseLogger.Info("fcm push notifications enabled")
	} else {
		baseLogger.Warn("firebase credentials missing, push notifications disabled")
	}

	var text notify.Texter
	if cfg.WhatsApp.Enabled() {
		text = whatsapp.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp fallback enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, text fallback disabled")
	}

	var exporter ledger.Exporter
	if cfg.Sheets.Enabled() {
		sheetsExporter, err := sheets.NewLedgerExporter(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		exporter = sheetsExporter
	} else {
		baseLogger.Warn("sheets configuration missing, ledger export disabled")
	}

	if cfg.Electricity.BaseURL == "" {
		baseLogger.Warn("electricity board url missing, using simulated bills")
	}

	notifier := notify.NewService(store.Users, push, text, m, baseLogger.Named("svc.notify"))
	guard := access.NewGuard(store.Users, store.Properties, store.Units)
	engine := occupancy.NewService(store.Units, m, baseLogger.Named("svc.occupancy"))

	accountSvc := account.NewService(store.Users, notifier, baseLogger.Named("svc.account"))
	propertySvc := property.NewService(guard, store, engine, notifier, baseLogger.Named("svc.property"))
	utilitySvc := utility.NewService(guard, store.Units, billboard.New(cfg.Electricity), notifier, cfg.Electricity.DefaultRegion, m, baseLogger.Named("svc.utility"))
	ledgerSvc := ledger.NewService(guard, store.Properties, store.Units, store.Rent, exporter, m, baseLogger.Named("svc.ledger"))
	paymentSvc := payment.NewService(razorpay.NewClient(cfg.Razorpay), store.Payments, store.Rent, notifier, baseLogger.Named("svc.payment"))
	maintenanceSvc := maintenance.NewService(guard, store, notifier, baseLogger.Named("svc.maintenance"))
	agreementSvc := agreement.NewService(guard, store.Agreements, baseLogger.Named("svc.agreement"))
	expenseSvc := expense.NewService(guard, store.Expenses, baseLogger.Named("svc.expense"))
	handoverSvc := handover.NewService(guard, store.Handovers, baseLogger.Named("svc.handover"))
	analyticsSvc := analytics.NewService(guard, store, baseLogger.Named("svc.analytics"))

	h := router.Handlers{
		Accounts:    handlers.NewAccountHandler(accountSvc, baseLogger.Named("handlers.account")),
		Properties:  handlers.NewPropertyHandler(propertySvc, baseLogger.Named("handlers.property")),
		Electricity: handlers.NewElectricityHandler(utilitySvc, baseLogger.Named("handlers.electricity")),
		Rent:        handlers.NewRentHandler(ledgerSvc, baseLogger.Named("handlers.rent")),
		Payments:    handlers.NewPaymentHandler(paymentSvc, baseLogger.Named("handlers.payment")),
		Maintenance: handlers.NewMaintenanceHandler(maintenanceSvc, baseLogger.Named("handlers.maintenance")),
		Agreements:  handlers.NewAgreementHandler(agreementSvc, baseLogger.Named("handlers.agreement")),
		Records:     handlers.NewRecordsHandler(expenseSvc, handoverSvc, analyticsSvc, baseLogger.Named("handlers.records")),
	}
	if cfg.Auth.DevBypass {
		baseLogger.Warn("auth dev bypass enabled, X-Test-Mode headers are trusted")
	}
	auth := middleware.NewAuthenticator(cfg.Auth, baseLogger.Named("auth"))
	ginEngine := router.New(h, auth, m, baseLogger.Named("router"))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Test-Mode", "X-Test-Uid", "X-Test-Role"},
		AllowCredentials: true,
	}).Handler(ginEngine)

	sched, err := scheduler.NewScheduler(
		cfg.Rent,
		ledgerSvc,
		analyticsSvc,
		store.Properties,
		notifier,
		runLock(ctx, cfg.Redis, baseLogger),
		m,
		baseLogger.Named("scheduler"),
	)
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop()
	ledgerSvc.Wait()
	notifier.Wait()
	if err := store.Close(shutdownCtx); err != nil {
		baseLogger.Error("failed to close storage", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMongoDB:
		return mongodb.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("mongodb"))
	case config.StoragePostgres:
		return postgres.Open(ctx, cfg.Postgres.DSN, log.Named("postgres"))
	default:
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}
}

// runLock prefers Redis so that only one replica runs each scheduled job.
func runLock(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) scheduler.RunLock {
	if cfg.Addr == "" {
		log.Warn("redis address missing, scheduler lock is local to this process")
		return scheduler.NewLocalLock()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, scheduler lock is local to this process", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return scheduler.NewLocalLock()
	}
	return scheduler.NewRedisLock(client)
}
