package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/decantaria/fulfillment/internal/adapter/address"
	"github.com/decantaria/fulfillment/internal/adapter/handler"
	"github.com/decantaria/fulfillment/internal/adapter/notify"
	"github.com/decantaria/fulfillment/internal/adapter/payment"
	"github.com/decantaria/fulfillment/internal/adapter/shipping"
	"github.com/decantaria/fulfillment/internal/adapter/storage"
	"github.com/decantaria/fulfillment/internal/config"
	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/core/service"
	"github.com/decantaria/fulfillment/internal/port"
)

const serviceName = "fulfillment"

type saleStoreWithCatalog interface {
	port.SaleStore
	port.CatalogRepository
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.With().Str("service", serviceName).Logger()
	logger := zlog.Logger

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: MySQL when configured, in-memory store for local development.
	var store saleStoreWithCatalog
	var db *sql.DB
	if cfg.MySQLDSN != "" {
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect mysql")
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ping mysql")
		}
		logger.Info().Msg("connected to mysql")
		store = storage.NewMySQLAdapter(db)
	} else {
		logger.Warn().Msg("MYSQL_DSN not set, using in-memory store with a demo catalog")
		store = seedMemoryStore()
	}

	// Redis is optional: without it there is no quote caching and checkouts
	// are not idempotent across retries.
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		logger.Info().Msg("connected to redis")
		cache = storage.NewRedisAdapter(rdb)
	}

	// Events: Kafka when brokers are configured, otherwise an in-process bus
	// with a logging consumer standing in for the ops dashboard feed.
	var events port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		events = kafkaPub
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing sale events to kafka")
	} else {
		bus := notify.NewBus()
		defer bus.Close()
		go consumeSaleFeed(bus.Subscribe(64), logger)
		events = bus
	}

	flatRates, err := cfg.FlatRateTable()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid flat rate table")
	}

	providers := []port.RateProvider{
		shipping.NewPickup(),
		shipping.NewFlatRateCourier(flatRates),
		shipping.NewAggregator(shipping.AggregatorConfig{
			BaseURL:          cfg.Aggregator.BaseURL,
			Token:            cfg.Aggregator.Token,
			OriginPostalCode: cfg.Aggregator.OriginPostalCode,
		}, cache),
	}

	resolver := service.NewShippingResolver(providers, 0)
	checkout := service.NewCheckoutService(store, store, cache, events)
	gateway := payment.NewPixGateway(payment.PixConfig{
		BaseURL: cfg.Payment.BaseURL,
		Token:   cfg.Payment.Token,
	})
	addresses := address.NewViaCEPClient(cfg.AddressBaseURL)

	httpHandler := handler.NewHTTPHandler(resolver, checkout, gateway, addresses)
	metrics := handler.NewMetrics(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	httpHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.RequestLogger(logger)(metrics.Instrument(mux)),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info().Msg("connections closed")
}

func loadConfig() (*config.Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	return config.Load(path)
}

// consumeSaleFeed drains the in-process stream the way a dashboard consumer
// would; lost entries never affect sale or inventory state.
func consumeSaleFeed(feed <-chan domain.SaleCompleted, logger zerolog.Logger) {
	for evt := range feed {
		logger.Info().
			Str("sale_id", evt.SaleID).
			Str("customer", evt.CustomerName).
			Str("amount", evt.Amount.StringFixed(2)).
			Time("at", evt.Timestamp).
			Msg("sale completed")
	}
}

func seedMemoryStore() *storage.MemoryStore {
	store := storage.NewMemoryStore()
	now := time.Now().UTC()
	store.AddProduct(domain.Product{
		ID: "aventus-100ml", Name: "Aventus 100ml", Brand: "Creed",
		Price: decimal.RequireFromString("2350.00"), Stock: 3,
		Category: "sealed", WeightKg: 0.45, Kind: domain.KindSealed,
		CreatedAt: now, UpdatedAt: now,
	})
	store.AddProduct(domain.Product{
		ID: "aventus-10ml-decant", Name: "Aventus 10ml decant", Brand: "Creed",
		Price: decimal.RequireFromString("120.00"), Stock: 25,
		Category: "decant", WeightKg: 0.05, Kind: domain.KindDecant,
		CreatedAt: now, UpdatedAt: now,
	})
	store.AddProduct(domain.Product{
		ID: "gift-wrap", Name: "Gift wrapping", Brand: "",
		Price: decimal.RequireFromString("8.00"), Stock: 0,
		Category: "service", WeightKg: 0, Kind: domain.KindService,
		CreatedAt: now, UpdatedAt: now,
	})
	return store
}
