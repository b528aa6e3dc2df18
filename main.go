package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/junaidrashid-git/storefront/auth"
	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/catalog"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/config"
	"github.com/junaidrashid-git/storefront/events"
	"github.com/junaidrashid-git/storefront/middleware"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/routes"
	"github.com/junaidrashid-git/storefront/session"
)

const sweepInterval = time.Minute

func main() {
	// Load environment variables
	cfg, err := config.Load()
	if err != nil {
		// No logger yet: fall back to a bare production one.
		zap.Must(zap.NewProduction()).Fatal("failed to load configuration", zap.Error(err))
	}

	logger := newLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting storefront", zap.String("catalog", cfg.CatalogDriver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB (optional unless the catalog lives in Postgres)
	var db *gorm.DB
	if cfg.Database.Enabled() {
		db = initDatabase(cfg.Database, logger)

		// Auto-migrate all tables
		if err := db.AutoMigrate(
			&models.Product{},
			&models.CheckoutSession{},
		); err != nil {
			logger.Fatal("AutoMigrate failed", zap.Error(err))
		}
	}

	source, err := newCatalog(cfg, db, logger)
	if err != nil {
		logger.Fatal("failed to set up catalog", zap.Error(err))
	}
	images := catalog.ImageURLBuilder{ProjectID: cfg.Sanity.ProjectID, Dataset: cfg.Sanity.Dataset}

	publisher := newPublisher(cfg.NATSURL, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	checkoutSvc, err := newCheckout(cfg, db, images, publisher, logger)
	if err != nil {
		logger.Fatal("failed to set up checkout", zap.Error(err))
	}

	// Sessions: one cart per guest, notifications pushed through the hub
	hub := notify.NewHub(logger.Named("notify"))
	registry := session.NewRegistry(
		session.WithTTL(cfg.SessionTTL),
		session.WithLogger(logger.Named("session")),
		session.WithStoreFactory(func(id string) *cart.Store {
			return cart.NewStore(cart.WithNotifier(hub.For(id)))
		}),
		session.WithOnClose(hub.CloseSession),
	)
	go registry.Run(ctx, sweepInterval)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("failed to set up token issuer", zap.Error(err))
	}

	// Gin setup
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ZapRecovery(logger), middleware.ZapLogger(logger.Named("http")))

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, routes.Dependencies{
		Logger:              logger,
		Registry:            registry,
		Issuer:              issuer,
		Hub:                 hub,
		Catalog:             source,
		Images:              images,
		Checkout:            checkoutSvc,
		AdminAPIKey:         cfg.AdminAPIKey,
		StripeWebhookSecret: cfg.Stripe.WebhookSecret,
	})

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}

// initDatabase sets up the GORM DB connection
func initDatabase(cfg config.Database, logger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	return db
}

func newCatalog(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (catalog.Source, error) {
	if cfg.CatalogDriver == config.CatalogPostgres {
		return catalog.NewPostgres(db), nil
	}
	return catalog.NewSanity(catalog.SanityConfig{
		ProjectID:  cfg.Sanity.ProjectID,
		Dataset:    cfg.Sanity.Dataset,
		APIVersion: cfg.Sanity.APIVersion,
		Token:      cfg.Sanity.Token,
		UseCDN:     cfg.Sanity.UseCDN,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}, logger.Named("sanity"))
}

func newPublisher(url string, logger *zap.Logger) events.Publisher {
	if url == "" {
		return events.Nop{}
	}
	p, err := events.NewNATSPublisher(url, logger.Named("nats"))
	if err != nil {
		logger.Warn("events disabled, NATS unavailable", zap.String("url", url), zap.Error(err))
		return events.Nop{}
	}
	return p
}

// newCheckout returns nil when Stripe is not configured.
func newCheckout(cfg *config.Config, db *gorm.DB, images catalog.ImageURLBuilder, publisher events.Publisher, logger *zap.Logger) (*checkout.Service, error) {
	if !cfg.Stripe.Enabled() {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout disabled")
		return nil, nil
	}

	stripe, err := checkout.NewStripe(checkout.StripeConfig{
		SecretKey:  cfg.Stripe.SecretKey,
		APIURL:     cfg.Stripe.APIURL,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
		Currency:   cfg.Stripe.Currency,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Images:     images,
	})
	if err != nil {
		return nil, err
	}

	opts := []checkout.ServiceOption{
		checkout.WithPublisher(publisher),
		checkout.WithCurrency(stripe.Currency()),
		checkout.WithLogger(logger.Named("checkout")),
	}
	if db != nil {
		opts = append(opts, checkout.WithRecorder(checkout.NewGormRecorder(db)))
	}
	return checkout.NewService(stripe, opts...), nil
}
