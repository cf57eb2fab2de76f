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

	"github.com/OCCASS/rml/internal/cart"
	"github.com/OCCASS/rml/internal/config"
	"github.com/OCCASS/rml/internal/database"
	"github.com/OCCASS/rml/internal/infrastructure/captcha"
	"github.com/OCCASS/rml/internal/infrastructure/notify"
	"github.com/OCCASS/rml/internal/infrastructure/payment"
	"github.com/OCCASS/rml/internal/logging"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/OCCASS/rml/internal/server"
	"github.com/OCCASS/rml/internal/service"
	"github.com/OCCASS/rml/internal/session"
	"github.com/OCCASS/rml/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := database.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	productRepo := repo.NewProductRepo(db.DB())
	orderRepo := repo.NewOrderRepo(db.DB())

	gateway := newGateway(cfg, log)
	dispatcher := newDispatcher(cfg, log)

	cartService := service.NewCartService(productRepo, cart.NewSessionStore(cart.DefaultSessionKey))
	paymentService := service.NewPaymentService(orderRepo, gateway, log)
	checkoutService := service.NewCheckoutService(orderRepo, service.NewOrderService(orderRepo), paymentService, dispatcher, log)

	srv := server.New(server.Deps{
		Config:      cfg,
		Log:         log,
		Sessions:    session.NewRedisStore(rdb, cfg.SessionTTL),
		Products:    productRepo,
		Carts:       cartService,
		Checkout:    checkoutService,
		Partnership: dispatcher,
		Captcha:     captcha.NewRecaptchaVerifier(cfg.RecaptchaSecretKey, "", nil),
		Health: map[string]server.HealthCheck{
			"database": db.Health,
			"redis": func(ctx context.Context) map[string]string {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return map[string]string{"status": "down", "error": err.Error()}
				}
				return map[string]string{"status": "up"}
			},
		},
	})

	reconciler := worker.NewReconciliationWorker(orderRepo, checkoutService, cfg.ReconcileInterval, cfg.ReconcileStaleAfter, log)
	go reconciler.Run(ctx)

	httpServer := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newGateway(cfg *config.Config, log *slog.Logger) payment.PaymentGateway {
	if cfg.PaymentProvider == "mock" {
		log.Warn("Using the in-memory mock payment gateway")
		return payment.NewMockGateway(true)
	}
	if cfg.YooKassaShopID == "" || cfg.YooKassaSecretKey == "" {
		log.Error("YooKassa credentials are not configured; payments will fail")
	}
	return payment.NewYooKassaGateway(payment.YooKassaConfig{
		ShopID:    cfg.YooKassaShopID,
		SecretKey: cfg.YooKassaSecretKey,
		BaseURL:   cfg.YooKassaAPIURL,
		Timeout:   cfg.PaymentTimeout,
	}, nil)
}

func newDispatcher(cfg *config.Config, log *slog.Logger) *notify.Dispatcher {
	if cfg.TelegramBotToken == "" || len(cfg.TelegramChatIDs) == 0 {
		log.Info("Telegram notifications disabled")
		return notify.NewDispatcher(nil, nil, log)
	}
	sender := notify.NewTelegramSender(cfg.TelegramAPIURL, cfg.TelegramBotToken, nil)
	return notify.NewDispatcher(sender, cfg.TelegramChatIDs, log)
}
