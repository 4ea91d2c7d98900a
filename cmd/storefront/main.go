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

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/backend"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/account"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/querycache"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Storefront] %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Storefront] %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting storefront",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.BackendURL),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.Bool("redis_cache", cfg.RedisAddr != ""),
	)

	// Query cache: Redis when configured, so instances share sessions
	var cacheStore store.CacheStore
	if cfg.RedisAddr != "" {
		client, err := store.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		cacheStore = store.NewRedisStore(client, "storefront")
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	} else {
		cacheStore = store.NewMemoryStore()
	}

	// Activity publishing is optional
	var publisher activity.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing activity", zap.String("topic", cfg.KafkaTopic))
	}
	recorder := activity.NewRecorder(publisher, logger)

	client := backend.NewClient(backend.Config{
		BaseURL:         cfg.BackendURL,
		Timeout:         cfg.BackendTimeout,
		ReadRetries:     cfg.ReadRetries,
		MutationRetries: cfg.MutationRetries,
	}, logger)

	cache := querycache.New(cacheStore, cfg.CacheTTL)
	pending := querycache.NewPending()

	// Initialize domain services
	cartSvc := cart.NewService(client, cache, pending, logger)
	wishlistSvc := wishlist.NewService(client, cache, pending, logger)
	orderSvc := order.NewService(client, cache, pending, logger)
	checkoutSvc := checkout.NewService(cartSvc, orderSvc, logger)
	catalogSvc := product.NewService(client, cache, logger)
	accountSvc := account.NewService(client, logger)

	// Initialize API
	cookies := api.CookieConfig{Secure: cfg.CookieSecure, AuthTTL: cfg.AuthCookieTTL}
	handlers := api.NewHandlers(cartSvc, wishlistSvc, orderSvc, checkoutSvc, catalogSvc, recorder, cookies, logger)
	authHandlers := api.NewAuthHandlers(accountSvc, recorder, cookies, logger)
	sessions := middleware.NewSession(auth.NewCartTokenCodec(cfg.CartTokenSecret, cfg.CartTokenTTL), cfg.CookieSecure, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(handlers, authHandlers, sessions, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
