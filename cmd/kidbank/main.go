package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/kidbank/internal/cache"
	"github.com/dukerupert/kidbank/internal/config"
	"github.com/dukerupert/kidbank/internal/database"
	"github.com/dukerupert/kidbank/internal/email"
	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/logging"
	"github.com/dukerupert/kidbank/internal/middleware"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
	"github.com/dukerupert/kidbank/internal/payment"
	"github.com/dukerupert/kidbank/internal/push"
	"github.com/dukerupert/kidbank/internal/server"
	"github.com/dukerupert/kidbank/internal/store"
	"github.com/dukerupert/kidbank/internal/sweeper"
	"github.com/dukerupert/kidbank/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kidbank: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger.With("component", "hub"))
	dispatcher := notify.NewDispatcher(logger.With("component", "notify"), cfg.NotifyQueueSize,
		notify.NewInboxSink(store.NewNotificationStore(db)),
		notify.NewHubSink(hub),
	)

	var pushSvc *push.Service
	if cfg.PushEnabled() {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, push.WithSubscriber(cfg.VAPIDSubscriber))
		dispatcher.AddSink(notify.NewPushSink(store.NewPushStore(db), pushSvc))
	} else {
		logger.Info("web push disabled, VAPID keys not set")
	}

	mailer := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.BaseURL)
	if mailer.Configured() {
		dispatcher.AddSink(notify.NewEmailSink(mailer, store.NewFamilyStore(db),
			model.NotifGoalAchieved, model.NotifWalletFunded))
	}

	ledgerOpts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithEmitter(dispatcher),
	}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		dashboards := cache.NewDashboard(rdb, cfg.DashboardTTL, logger.With("component", "cache"))
		if err := dashboards.Ping(ctx); err != nil {
			logger.Warn("dashboard cache unreachable, continuing", "error", err)
		}
		ledgerOpts = append(ledgerOpts, ledger.WithDashboardCache(dashboards))
		dispatcher.AddSink(cache.NewInvalidationSink(dashboards))
	}
	svc := ledger.New(db, ledgerOpts...)

	deps := server.Deps{
		DB:          db,
		Ledger:      svc,
		Hub:         hub,
		Push:        pushSvc,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow),
		Logger:      logger,
	}
	if cfg.StripeEnabled() {
		stripeClient := payment.NewClient(payment.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.StripeCurrency,
			SuccessURL:    cfg.BaseURL + "/wallet?funding=success",
			CancelURL:     cfg.BaseURL + "/wallet?funding=cancelled",
		})
		deps.Checkouts = stripeClient
		deps.Webhooks = stripeClient
	} else {
		logger.Info("card funding disabled, stripe keys not set")
	}
	srv := server.New(deps)

	dispatcher.Start(ctx)
	sweep := sweeper.New(svc, cfg.MissedSweepInterval, logger.With("component", "sweeper"))
	sweep.Start(ctx)
	go srv.RunRateLimitCleanup(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("kidbank listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	sweep.Stop()
	dispatcher.Stop()
	return nil
}
