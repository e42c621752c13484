// cmd/server is the API entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivanand-hulikatti/table-booking/internal/auth"
	"github.com/Shivanand-hulikatti/table-booking/internal/cache"
	"github.com/Shivanand-hulikatti/table-booking/internal/config"
	"github.com/Shivanand-hulikatti/table-booking/internal/database"
	"github.com/Shivanand-hulikatti/table-booking/internal/handler"
	"github.com/Shivanand-hulikatti/table-booking/internal/notify"
	"github.com/Shivanand-hulikatti/table-booking/internal/obs"
	"github.com/Shivanand-hulikatti/table-booking/internal/repository"
	"github.com/Shivanand-hulikatti/table-booking/internal/service"
	"github.com/Shivanand-hulikatti/table-booking/internal/slot"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	calc, err := slot.New(cfg.Slot())
	if err != nil {
		return err
	}

	if cfg.OTelEnabled {
		shutdown, err := obs.InitTracer(ctx, cfg.AppName, cfg.AppEnv, cfg.OTelEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("tracer shutdown", "err", err)
			}
		}()
	}

	// ── 2. Connect to PostgreSQL and migrate ─────────────────────────────
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	slog.Info("connected to postgres")

	// ── 3. Cache and notifications (both degrade instead of failing) ─────
	var availCache cache.Cache
	if client, err := cache.Dial(ctx, cfg.RedisURL); err != nil {
		slog.Warn("redis unavailable, using in-process cache", "err", err)
		availCache = cache.NewMemory()
	} else {
		defer client.Close()
		availCache = cache.NewRedis(client)
	}

	var dispatcher notify.Dispatcher
	if pub, err := notify.DialPublisher(cfg.AMQPURL, cfg.NotifyExchange, cfg.NotifyBuffer); err != nil {
		slog.Warn("rabbitmq unavailable, notifications disabled", "err", err)
		dispatcher = notify.Discard{}
	} else {
		defer func() {
			if err := pub.Close(); err != nil {
				slog.Warn("publisher close", "err", err)
			}
		}()
		dispatcher = pub
	}

	// ── 4. Wire up layers ────────────────────────────────────────────────
	bookingRepo := repository.NewBookingRepository(pool)
	tableRepo := repository.NewTableRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	tableSvc := service.NewTableService(tableRepo, calc, availCache, cfg.CacheTTL())
	bookingSvc := service.NewBookingService(bookingRepo, tableRepo, calc, availCache, dispatcher, cfg.CancelDeadline())
	authSvc := service.NewAuthService(userRepo, auth.NewTokens(cfg.SecretKey, cfg.TokenTTL()), cfg.AdminEmails())

	if err := tableSvc.Bootstrap(ctx, cfg.DefaultTables()); err != nil {
		return err
	}

	// ── 5. Build the router ──────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := handler.Routes(handler.Deps{
		Auth:           authSvc,
		Bookings:       bookingSvc,
		Tables:         tableSvc,
		Metrics:        handler.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// ── 6. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
