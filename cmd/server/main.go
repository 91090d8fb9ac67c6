package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // load .env when present
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storage-booking/internal/config"
	"github.com/iliyamo/storage-booking/internal/database"
	"github.com/iliyamo/storage-booking/internal/handler"
	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/middleware"
	"github.com/iliyamo/storage-booking/internal/processor"
	"github.com/iliyamo/storage-booking/internal/queue"
	"github.com/iliyamo/storage-booking/internal/repository"
	"github.com/iliyamo/storage-booking/internal/repository/memory"
	"github.com/iliyamo/storage-booking/internal/router"
	"github.com/iliyamo/storage-booking/internal/service"
	"github.com/iliyamo/storage-booking/internal/utils"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logrus.WithField("env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store: MySQL unless STORE_DRIVER=memory.
	var (
		store service.Store
		db    *sql.DB
	)
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		store = memory.New()
	default:
		var err error
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()
		if cfg.DBAutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				log.WithError(err).Fatal("migrate database")
			}
		}
		store = repository.NewStore(db)
	}

	var proc processor.Processor
	switch cfg.Processor {
	case "memory":
		log.Warn("using in-memory payment processor; no card is charged")
		proc = processor.NewMemory()
	default:
		proc = processor.NewStripe(cfg.StripeKey)
	}

	passHash := cfg.AdminPassHash
	if passHash == "" {
		h, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.WithError(err).Fatal("hash admin password")
		}
		passHash = h
	}

	// Redis is optional: without it the cache and rate limiter pass through.
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if cacheCfg.Enabled || rlCfg.Enabled {
		c, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			log.WithError(err).Warn("redis unavailable; response cache and rate limiting disabled")
		} else {
			rdb = c
			defer rdb.Close()
		}
	}

	var events service.EventPublisher
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitURL)
		consumer := &queue.BookingLogger{URL: cfg.RabbitURL, Dir: cfg.BookingLogDir}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking consumer stopped")
			}
		}()
	}

	bookings := service.NewBookings(store, proc, events, cfg.Currency)
	catalog := service.NewCatalog(store)
	admin := service.NewAdmin(store, service.AdminAuth{
		Email:        cfg.AdminEmail,
		PasswordHash: passHash,
		JWTSecret:    cfg.JWTSecret,
		TokenTTLMin:  cfg.AdminTTLMin,
	})

	if cfg.ReconcileEvery > 0 {
		go service.NewReconciler(bookings, cfg.ReconcileStale, cfg.AbandonAfter).Run(ctx, cfg.ReconcileEvery)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLogger())

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	router.RegisterRoutes(e, pinger)
	router.RegisterPublic(e,
		&handler.PlanHandler{Catalog: catalog, Currency: cfg.Currency},
		&handler.BookingHandler{Bookings: bookings},
		&handler.CheckoutHandler{Bookings: bookings},
		cacheCfg, rlCfg, rdb)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Admin:       admin,
		Catalog:     catalog,
		Redis:       rdb,
		CachePrefix: cacheCfg.Prefix,
		Currency:    cfg.Currency,
	}, cfg.JWTSecret, rlCfg, rdb)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown")
	}
}
