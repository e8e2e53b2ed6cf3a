package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	cartapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/cart"
	orderapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/order"
	paymentapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/pricing"
	promoapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/promotion"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
	rediscache "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/cache/redis"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/encoding/avro"
	ginserver "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/http/gin"
	kafkainfra "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/messaging/kafka"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/payment/vnpay"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/memory"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/postgres"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/handler"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/router"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/metrics"
)

// stores gom các repository theo storage driver đang chạy.
type stores struct {
	products    repository.ProductRepository
	promotions  repository.PromotionRepository
	orders      repository.OrderRepository
	carts       repository.CartRepository
	idempotency repository.IdempotencyStore
	tx          repository.Transactor
	health      handler.Pinger
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	appLog, err := logger.NewZapLogger(cfg.App.Env, cfg.App.Name)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Fatal("api stopped with error", logger.Error(err))
	}
	appLog.Info("api exited")
}

func run(ctx context.Context, cfg *config.Config, appLog logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	st, err := openStores(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer st.close()

	codec, err := avro.NewOrderEventCodec()
	if err != nil {
		return err
	}
	producer, err := kafkainfra.NewOrderEventProducer(cfg.Kafka, codec, appLog)
	if err != nil {
		return err
	}
	defer producer.Close(context.WithoutCancel(ctx))

	orders := orderapp.NewService(orderapp.Deps{
		Pricing:     pricing.NewEngine(st.products),
		Promotions:  promoapp.NewEvaluator(st.promotions, st.orders),
		Orders:      st.orders,
		Products:    st.products,
		PromoStore:  st.promotions,
		Carts:       st.carts,
		Idempotency: st.idempotency,
		Tx:          st.tx,
		Publisher:   producer,
		Shipping:    orderapp.FlatRateShipping(cfg.Shipping.FlatFee, cfg.Shipping.FreeFromSubtotal),
		Metrics:     m,
		Logger:      appLog,
	})
	payments := paymentapp.NewService(paymentapp.Deps{
		Orders:    st.orders,
		Gateway:   vnpay.NewClient(cfg.VNPay),
		Querier:   vnpay.NewQueryClient(cfg.VNPay, appLog),
		Publisher: producer,
		Metrics:   m,
		Logger:    appLog,
	})

	engine := ginserver.NewEngine(cfg.App.Env)
	router.RegisterRoutes(engine, router.Handlers{
		Orders:  handler.NewOrderHandler(orders, appLog),
		Payment: handler.NewPaymentHandler(payments, cfg.Frontend.PaymentResultURL, appLog),
		Cart:    handler.NewCartHandler(cartapp.NewService(st.carts, st.products), appLog),
		Health:  handler.NewHealthHandler(st.health, appLog),
	}, m, reg, appLog)

	server := ginserver.NewServer(cfg.Server, engine, appLog)

	sweeper := paymentapp.NewSweeper(payments, paymentapp.SweeperConfig{
		Interval: cfg.Reconcile.Interval,
		MinAge:   cfg.Reconcile.MinAge,
		Workers:  cfg.Reconcile.Workers,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	return g.Wait()
}

// openStores: driver memory chạy hoàn toàn trong RAM với catalog mẫu,
// driver postgres dùng pgx cho dữ liệu và Redis cho giỏ hàng, idempotency key.
func openStores(ctx context.Context, cfg *config.Config, appLog logger.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		appLog.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		store.SeedDemoCatalog(time.Now())
		return &stores{
			products:    store.Products(),
			promotions:  store.Promotions(),
			orders:      store.Orders(),
			carts:       memory.NewCartStore(),
			idempotency: memory.NewIdempotencyStore(),
			tx:          store,
			health:      store,
			close:       func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, appLog)
	if err != nil {
		return nil, err
	}
	redisClient, err := rediscache.NewClient(cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		products:    postgres.NewProductRepository(pool),
		promotions:  postgres.NewPromotionRepository(pool),
		orders:      postgres.NewOrderRepository(pool),
		carts:       rediscache.NewCartStore(redisClient, cfg.Redis.CartTTL),
		idempotency: rediscache.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL),
		tx:          postgres.NewTransactor(pool),
		health:      pool,
		close: func() {
			_ = redisClient.Close()
			pool.Close()
		},
	}, nil
}
