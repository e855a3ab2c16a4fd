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

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/cart"
	cartmemory "github.com/Janetzy-GS18/Proyecto-PIA/internal/cart/memory"
	cartredis "github.com/Janetzy-GS18/Proyecto-PIA/internal/cart/redis"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog"
	catalogsqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/sqlite"
	customersqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/events"
	eventsrabbit "github.com/Janetzy-GS18/Proyecto-PIA/internal/events/rabbitmq"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/httpx"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger"
	ledgersqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/pkg/cache"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/pkg/telemetry"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting"
	reportingsqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "shop-server"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := store.Open(getEnv("DB_PATH", "./data/shop.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis backs the carts and the product read cache. Without it the cart
	// falls back to process memory, which is fine for a single instance.
	var cartStore cart.Store = cartmemory.NewStore()
	var productCache cache.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		cartStore = cartredis.NewStore(client)
		productCache = cache.NewRedisCache(client, "shop")
	} else {
		slog.Warn("REDIS_ADDR not set, using in-memory cart store")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		conn, ch, err := eventsrabbit.SetupConn(amqpURL)
		if err != nil {
			slog.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		defer ch.Close()
		publisher = eventsrabbit.NewPublisher(ch)
	}

	productRepo := catalogsqlite.NewRepository(db)
	products := catalog.NewService(productRepo, productCache)
	carts := cart.NewService(cartStore, productRepo)
	customers := customersqlite.NewRepository(db)
	sales := ledger.NewService(ledgersqlite.NewRepository(db), carts, products, publisher)
	reports := reporting.NewService(reportingsqlite.NewRepository(db))

	handler := httpx.NewHandler(products, carts, sales, customers, reports)
	router := otelhttp.NewHandler(httpx.NewRouter(handler), "shop-server")

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("shop server running", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
