package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fygaro-bridge/internal/checkout"
	"fygaro-bridge/internal/config"
	"fygaro-bridge/internal/db"
	"fygaro-bridge/internal/deliveries"
	"fygaro-bridge/internal/logger"
	"fygaro-bridge/internal/metrics"
	"fygaro-bridge/internal/middleware"
	"fygaro-bridge/internal/order"
	"fygaro-bridge/internal/payment"
	"fygaro-bridge/internal/payment/webhook"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc = db.NewDatabase

	// startServerFunc blocks until the server stops or ctx is cancelled.
	startServerFunc = func(ctx context.Context, srv *http.Server) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

type handlers struct {
	checkout *checkout.Handler
	webhook  *webhook.Handler
	limiter  *middleware.RateLimiter
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	repo, closeRepo, err := newDeliveryRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	h, err := newHandlers(cfg, repo)
	if err != nil {
		return err
	}
	h.limiter.StartCleanup(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.OrderTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.L().Info("server starting",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.AppEnv),
	)
	if err := startServerFunc(ctx, srv); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.L().Info("server stopped")
	return nil
}

// newDeliveryRepository uses Postgres when DATABASE_URL is set, memory otherwise.
func newDeliveryRepository(ctx context.Context, cfg *config.Config) (deliveries.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		mem := deliveries.NewMemoryRepository(cfg.DeliveryTTL, clockz.RealClock)
		mem.StartSweeper(ctx)
		logger.L().Info("delivery ledger: memory", zap.Duration("ttl", cfg.DeliveryTTL))
		return mem, func() {}, nil
	}

	database, err := initDBFunc(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open delivery ledger: %w", err)
	}
	logger.L().Info("delivery ledger: postgres")
	return deliveries.NewPostgresRepository(database), func() { closeDB(database) }, nil
}

func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		logger.L().Warn("failed to close database", zap.Error(err))
	}
}

func newHandlers(cfg *config.Config, repo deliveries.Repository) (*handlers, error) {
	signer, err := payment.NewLinkSigner(cfg.FygaroAPISecret, cfg.FygaroAPIKey, cfg.FygaroButtonURL)
	if err != nil {
		return nil, fmt.Errorf("link signer: %w", err)
	}

	opts := []webhook.Option{webhook.WithTolerance(cfg.WebhookTolerance)}
	if cfg.FygaroHookSecretPrevious != "" {
		opts = append(opts, webhook.WithPreviousSecret(cfg.FygaroHookSecretPrevious))
	}
	verifier, err := webhook.NewVerifier(cfg.FygaroHookSecret, cfg.FygaroAPIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("webhook verifier: %w", err)
	}

	orders := order.NewShopifyClient(cfg.ShopifyStoreURL, cfg.ShopifyAPIToken, cfg.ShopifyAPIVersion, cfg.OrderTimeout)

	return &handlers{
		checkout: checkout.NewHandler(orders, signer, cfg.FallbackOrdersURL(), cfg.OrderTimeout),
		webhook:  webhook.NewWebhookHandler(verifier, orders, repo, cfg.OrderTimeout),
		limiter:  middleware.NewRateLimiter(clockz.RealClock, "/webhook"),
	}, nil
}

func setupRouter(h *handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /pay", h.checkout.Pay)
	mux.HandleFunc("GET /confirm", h.checkout.Confirm)
	mux.HandleFunc("POST /webhook", h.webhook.PaymentWebhookHandler)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	return logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			h.limiter.Middleware(mux),
		),
	)
}
