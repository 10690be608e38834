// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"p24-gateway/internal/config"
	"p24-gateway/internal/domain/ports/adapter"
	"p24-gateway/internal/domain/ports/repository"
	payAdapters "p24-gateway/internal/infra/adapters/payment"
	"p24-gateway/internal/infra/adapters/payment/p24"
	tele "p24-gateway/internal/infra/adapters/telegram"
	"p24-gateway/internal/infra/api"
	pg "p24-gateway/internal/infra/db/postgres"
	"p24-gateway/internal/infra/logging"
	"p24-gateway/internal/infra/memory"
	"p24-gateway/internal/infra/metrics"
	red "p24-gateway/internal/infra/redis"
	"p24-gateway/internal/infra/sched"
	"p24-gateway/internal/infra/worker"
	"p24-gateway/internal/usecase"
)

var version = "dev"

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("p24-gateway stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(version, cfg.Gateway.Mode)

	// ---- Gateway ----
	gateway, err := newGateway(cfg, logger)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	var checks []func(context.Context) error

	// ---- Storage ----
	var (
		payments repository.PaymentRepository  = memory.NewPaymentRepo()
		tm       repository.TransactionManager = memory.NewTxManager()
	)
	if cfg.Database.URL != "" {
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		payments = pg.NewPaymentRepo(pool)
		tm = pg.NewTxManager(pool)
		checks = append(checks, pool.Ping)
		go reportPoolStats(ctx, pool)
	} else {
		logger.Warn().Msg("database.url not set; payments are kept in memory")
	}

	// ---- Ledger ----
	var (
		ledger  repository.NotificationLedger = memory.NewLedger(cfg.Redis.TTL)
		limiter api.Limiter
	)
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		ledger = red.NewNotificationLedger(rc, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(rc)
		checks = append(checks, rc.Ping)
	} else {
		logger.Warn().Msg("redis.url not set; notification ledger is in memory and rate limiting is off")
	}

	// ---- Alerts ----
	var alerter adapter.PaymentAlerter = tele.NewNoopAlerter(logger)
	if cfg.Telegram.Token != "" {
		a, err := tele.NewAlerter(cfg.Telegram)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		alerter = a
	}
	alerts := worker.NewPool(2, logger)
	alerts.Start(context.Background())
	defer alerts.Stop()

	payUC := usecase.NewPaymentUseCase(payments, ledger, tm, gateway, worker.NewAsyncAlerter(alerter, alerts), logger)

	if ttl := cfg.Gateway.PendingTTL; ttl > 0 {
		go sched.NewPaymentExpirer(payUC, 5*time.Minute, ttl, logger).Start(ctx)
	}

	// ---- HTTP ----
	srv := api.NewServer(payUC, api.Options{
		NotifyPath: cfg.HTTP.NotifyPath,
		Limiter:    limiter,
		RateLimit:  cfg.HTTP.RateLimit,
		Health: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("notify_path", cfg.HTTP.NotifyPath).
			Str("gateway", gateway.Name()).
			Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	// ---- Graceful shutdown ----
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newGateway(cfg *config.Config, logger *zerolog.Logger) (adapter.PaymentGateway, error) {
	g := cfg.Gateway
	if g.Mode == config.GatewayModeNoop {
		logger.Warn().Msg("gateway.mode=noop; no transaction reaches Przelewy24")
		return payAdapters.NewNoopPaymentGateway(g.CRC), nil
	}
	client := p24.New(g.User, g.SecretID, g.CRC,
		p24.WithBaseURL(g.BaseURL),
		p24.WithTimeout(g.Timeout),
		p24.WithEncoding(g.Encoding),
		p24.WithDebug(g.Debug),
		p24.WithLogger(logger),
		p24.WithObserver(metrics.GatewayObserver{}),
	)
	gw, err := payAdapters.NewP24Gateway(client, payAdapters.P24Merchant{
		MerchantID: g.MerchantID,
		PosID:      g.PosID,
		ReturnURL:  cfg.HTTP.ReturnURL,
		StatusURL:  cfg.HTTP.StatusURL,
		Country:    g.Country,
		Language:   g.Language,
		TimeLimit:  g.TimeLimit,
	})
	if err != nil {
		return nil, err
	}
	return gw, nil
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}
