package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"storefront/internal/cache"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/verifier"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	app := &cli.App{
		Name:   "storefront",
		Usage:  "storefront catalog, cart and checkout API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create tables and seed the demo catalog",
				Action: migrate,
			},
			{
				Name:  "token",
				Usage: "issue a signed API token for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "subject user id", Required: true},
					&cli.StringSliceFlag{Name: "perm", Usage: "permission to grant, e.g. orders:write"},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
				},
				Action: issueToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Base().WithError(err).Fatal("storefront exited")
	}
}

func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	return cfg, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := client.InitDBClient(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := client.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := repository.NewProductRepository(db).Seed(c.Context); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	logging.New("main").Info("database migrated and catalog seeded")
	return nil
}

func issueToken(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token, err := middleware.NewAuthenticator(cfg.JWT).Issue(c.String("user"), c.StringSlice("perm"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New("main")

	db, err := client.InitDBClient(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := client.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// payment mode is fixed here for the life of the process
	paymentVerifier, err := verifier.New(cfg.Razorpay, cfg.Environment)
	if err != nil {
		return fmt.Errorf("payment verifier: %w", err)
	}
	mode := paymentVerifier.Mode()
	log.WithField("payment_mode", mode.String()).Info("payment mode selected")

	var (
		receipts gateway.ReceiptStore
		lock     service.CheckoutLock
	)
	if cfg.Redis.Addr != "" {
		rdb, err := client.InitRedisClient(c.Context, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		receipts = cache.NewRedisReceiptStore(rdb, cfg.Checkout.ReceiptTTL)
		lock = cache.NewRedisCheckoutLock(rdb, cfg.Checkout.LockTTL)
	} else {
		log.Warn("REDIS_ADDR not set, using in-process receipt store and checkout lock")
		receipts = cache.NewMemoryReceiptStore(cfg.Checkout.ReceiptTTL)
		lock = cache.NewMemoryCheckoutLock(cfg.Checkout.LockTTL)
	}

	razorpayClient := client.NewRazorpayClient(&cfg.Razorpay)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cartRepo := repository.NewCartRepository(db)
	effectRepo := repository.NewCommitEffectRepository(db)

	relay := session.NewRelay()
	checkoutService := service.NewCheckoutService(
		cfg.Razorpay,
		cartRepo,
		userRepo,
		orderRepo,
		gateway.NewAdapter(razorpayClient, receipts, mode),
		paymentVerifier,
		service.NewCommitSequencer(db, orderRepo, productRepo, userRepo, cartRepo, effectRepo),
		session.NewController(relay, cfg.Checkout.SDKTimeout, cfg.Checkout.ModalTimeout),
		relay,
		lock,
	)

	srv := server.NewServer(server.Services{
		Catalog:  service.NewCatalogService(productRepo),
		Cart:     service.NewCartService(db, cartRepo, productRepo, userRepo),
		Checkout: checkoutService,
		Order:    service.NewOrderService(orderRepo),
		User:     service.NewUserService(userRepo),
	}, middleware.NewAuthenticator(cfg.JWT))

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.WithField("addr", serverAddr).Info("Starting HTTP server")
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-sigChan:
		log.Info("Signal received, starting graceful shutdown...")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
