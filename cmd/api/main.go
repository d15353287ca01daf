package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"shopcore/internal/config"
	"shopcore/internal/db"
	"shopcore/internal/httpserver"
	"shopcore/internal/mailer"
	"shopcore/internal/media"
	"shopcore/internal/payment"
	cartrepo "shopcore/internal/repository/cart"
	categoryrepo "shopcore/internal/repository/category"
	customerrepo "shopcore/internal/repository/customer"
	orderrepo "shopcore/internal/repository/order"
	productrepo "shopcore/internal/repository/product"
	rolerepo "shopcore/internal/repository/role"
	segmentrepo "shopcore/internal/repository/segment"
	settingsrepo "shopcore/internal/repository/settings"
	staffrepo "shopcore/internal/repository/staff"
	tokenrepo "shopcore/internal/repository/token"
	cartsvc "shopcore/internal/service/cart"
	catalogsvc "shopcore/internal/service/catalog"
	checkoutsvc "shopcore/internal/service/checkout"
	customersvc "shopcore/internal/service/customer"
	ordersvc "shopcore/internal/service/order"
	staffsvc "shopcore/internal/service/staff"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if cfg.JWTSecret == "" || cfg.CSRFSecret == "" {
		logger.Fatal("JWT_SECRET and CSRF_SECRET must be set")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	staffRepo := staffrepo.NewPostgres(dbpool)
	roleRepo := rolerepo.NewPostgres(dbpool)
	segmentRepo := segmentrepo.NewPostgres(dbpool)
	settingsRepo := settingsrepo.NewPostgres(dbpool)

	siteSettings, err := settingsRepo.Get(ctx)
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}

	var (
		mail  mailer.Mailer = mailer.Noop{Logger: logger}
		store *media.S3Storage
	)
	if cfg.EmailEnabled || cfg.MediaBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Fatalf("load aws config: %v", err)
		}
		if cfg.EmailEnabled {
			mail = mailer.NewSES(awsCfg, cfg.EmailFrom, siteSettings.StoreName, logger)
		}
		if cfg.MediaBucket != "" {
			store = media.NewS3(awsCfg, cfg.MediaBucket, cfg.MediaBaseURL, logger)
		}
	}

	provider := payment.WithRetry(payment.NewOffline())

	catalogService := catalogsvc.New(productRepo, categoryRepo)
	cartService := cartsvc.New(cartRepo, productRepo)
	customerService := customersvc.New(customerRepo, tokenRepo, cartRepo, segmentRepo, logger)
	checkoutService := checkoutsvc.New(cartRepo, orderRepo, productRepo, settingsRepo, provider, mail, logger)
	orderService := ordersvc.New(orderRepo, provider, mail, logger)
	staffService := staffsvc.New(staffRepo, roleRepo, cfg.JWTSecret, logger)

	deps := httpserver.Deps{
		CatalogSvc:  catalogService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		CustomerSvc: customerService,
		OrderSvc:    orderService,
		StaffSvc:    staffService,
		Segments:    segmentRepo,
		Settings:    settingsRepo,
	}
	if store != nil {
		deps.Media = store
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps, httpserver.Options{
		CORSOrigins:   cfg.CORSOrigins,
		CSRFSecret:    cfg.CSRFSecret,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
