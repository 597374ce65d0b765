package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kinogo/kinogo/internal/clock"
	"github.com/kinogo/kinogo/internal/config"
	"github.com/kinogo/kinogo/internal/email"
	"github.com/kinogo/kinogo/internal/payment"
	"github.com/kinogo/kinogo/internal/postgres"
	redisx "github.com/kinogo/kinogo/internal/redis"
	postgresrepo "github.com/kinogo/kinogo/internal/repository/postgres"
	redisrepo "github.com/kinogo/kinogo/internal/repository/redis"
	"github.com/kinogo/kinogo/internal/service"
	"github.com/kinogo/kinogo/internal/service/booking"
	"github.com/kinogo/kinogo/internal/service/catalog"
	"github.com/kinogo/kinogo/internal/service/discounts"
	"github.com/kinogo/kinogo/internal/service/query"
	"github.com/kinogo/kinogo/internal/service/rooms"
	"github.com/kinogo/kinogo/internal/service/shows"
	httpgin "github.com/kinogo/kinogo/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	shows      *shows.Service
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewShowsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	var sender email.Sender
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(
			cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From,
		)
	} else {
		logger.Warn("SMTP not configured, confirmation mail disabled")
	}

	bridge := payment.NewPayPal(
		cfg.PayPal.BaseURL,
		cfg.PayPal.ClientID,
		cfg.PayPal.ClientSecret,
		cfg.PayPal.Timeout,
	)

	clk := clock.System()

	showsSvc := shows.New(store, cache, pubsub, clk, logger)
	services := &service.Services{
		Rooms: rooms.New(store, logger),
		Shows: showsSvc,
		Booking: booking.New(store, bridge, sender, limiter, cache, pubsub, clk, logger, booking.Config{
			PaymentTimeout: cfg.PayPal.Timeout,
		}),
		Discounts: discounts.New(store),
		Query:     query.New(store, cache),
		Catalog:   catalog.New(store),
	}

	router := httpgin.NewRouter(services, idempotencyStore, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		shows: showsSvc,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Show lifecycle sweep: start and end shows whose time has come.
	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Sweep.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				started, ended, err := a.shows.Sweep(gCtx)
				if err != nil {
					a.logger.Error("show sweep failed", "error", err)
					continue
				}
				if started > 0 || ended > 0 {
					a.logger.Info("show sweep", "started", started, "ended", ended)
				}
			}
		}
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
