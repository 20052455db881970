package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/discount"
	"github.com/amazonas-market/checkout/internal/domain/notify"
	"github.com/amazonas-market/checkout/internal/domain/payment"
	"github.com/amazonas-market/checkout/internal/domain/purchase"
	"github.com/amazonas-market/checkout/internal/domain/reservation"
	"github.com/amazonas-market/checkout/internal/handler"
	"github.com/amazonas-market/checkout/internal/kafkanotify"
	"github.com/amazonas-market/checkout/internal/memory"
	"github.com/amazonas-market/checkout/internal/paygate"
	"github.com/amazonas-market/checkout/internal/rediscart"
	"github.com/amazonas-market/checkout/internal/repository"
	"github.com/amazonas-market/checkout/pkg/health"
	"github.com/amazonas-market/checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	storeRepo := repository.NewStoreRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	ledger := repository.NewTransactionRepository(pool, lg.Named("ledger"))

	// Cart store: Redis when configured, in-memory otherwise.
	var carts cart.Repository
	if cfg.RedisAddr != "" {
		rdb := rediscart.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		carts = rediscart.New(rdb)
		lg.Info("Using Redis cart store", zap.String("addr", cfg.RedisAddr))
	} else {
		carts = memory.NewCartStore()
		lg.Warn("Redis address not set, using in-memory cart store")
	}

	// Seller notifications: Kafka when configured, log otherwise.
	var notifier notify.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := kafkanotify.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
		lg.Info("Using Kafka notifier",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	} else {
		notifier = notify.NewLogNotifier(lg.Named("notify"))
		lg.Warn("Kafka brokers not set, logging notifications instead")
	}

	// Payment gateway: remote when configured, static dev gateway otherwise.
	var gateway payment.Gateway
	if cfg.PaymentURL != "" {
		gateway = paygate.NewHTTPGateway(cfg.PaymentURL)
	} else {
		gateway = paygate.NewStaticGateway(lg.Named("paygate"))
		lg.Warn("Payment URL not set, using static dev gateway")
	}

	// Domain services.
	pricer := discount.NewEngine(productRepo, discountRepo)
	reservations := reservation.NewManager(memory.NewReservationStore(), pricer, lg.Named("reservation"))
	orch := purchase.NewOrchestrator(
		carts, reservations, gateway,
		productRepo, storeRepo, notifier, ledger,
		lg.Named("purchase"),
	)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Mux: health endpoints + API routes on one server.
	h := handler.New(carts, orch, ledger, productRepo)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			func(next http.Handler) http.Handler {
				return otelhttp.NewHandler(next, "checkout-api",
					otelhttp.WithTracerProvider(m.TracerProvider()),
					otelhttp.WithMeterProvider(m.MeterProvider()),
				)
			},
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
