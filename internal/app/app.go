package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ambarika/storefront/internal/domain/order"
	"github.com/ambarika/storefront/internal/handler"
	"github.com/ambarika/storefront/internal/images"
	"github.com/ambarika/storefront/internal/notify"
	"github.com/ambarika/storefront/internal/payment"
	"github.com/ambarika/storefront/internal/storage/postgres"
	"github.com/ambarika/storefront/pkg/health"
	"github.com/ambarika/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// Payment gateway + signature verification + receipts.
	gateway := payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	sigs := payment.NewSignatureVerifier(cfg.Razorpay.KeySecret)
	receipts := payment.NewReceiptGenerator()

	// Confirmation email.
	mailer := notify.NewSendGridMailer(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromAddress)
	dispatcher := notify.NewDispatcher(mailer)

	// Signed image URLs. Without a bucket, stored URLs pass through.
	var signer images.Signer = images.NoopSigner{}
	if cfg.Images.Bucket != "" {
		s3signer, err := images.NewS3Signer(ctx, cfg.Images.Bucket, cfg.Images.Region, cfg.Images.BaseURL, cfg.Images.SignTTL)
		if err != nil {
			return errors.Wrap(err, "create image signer")
		}
		signer = s3signer
	}

	// Domain services.
	verifier := order.NewVerifier(productRepo)
	orderService := order.NewService(verifier, productRepo, orderRepo, gateway, sigs, receipts, dispatcher)

	// HTTP handlers.
	h := handler.New(
		handler.Config{
			GatewayKeyID: cfg.Razorpay.KeyID,
			JWTSecret:    []byte(cfg.JWTSecret),
		},
		productRepo,
		orderService,
		signer,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

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
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

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
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
