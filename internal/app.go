package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"uploadit/config"
	"uploadit/internal/application/ports"
	"uploadit/internal/application/services"
	"uploadit/internal/infrastructure/db/postgres"
	"uploadit/internal/infrastructure/db/postgres/filerecord"
	"uploadit/internal/infrastructure/db/postgres/user"
	"uploadit/internal/infrastructure/jwt"
	"uploadit/internal/infrastructure/kv"
	"uploadit/internal/infrastructure/metrics"
	"uploadit/internal/infrastructure/mq"
	"uploadit/internal/infrastructure/qrcode"
	"uploadit/internal/infrastructure/s3"
	"uploadit/internal/infrastructure/transfer"
	"uploadit/internal/interface/api/rest"
	"uploadit/internal/interface/api/rest/middleware"
	"uploadit/pkg/rmqconsumer"
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	s3         ports.ObjectStorage
	httpSrv    *http.Server
	router     *gin.Engine
	mCounter   *prometheus.CounterVec
	events     ports.EventPublisher
	rbMQ       *mq.RabbitMQ
	mqConsumer ports.RMQConsumer
	redis      *redis.Client
	transfer   *transfer.Downloader
	kvStore    ports.KVStore
	limiter    *middleware.RateLimiter
	reconciler *services.Reconciler
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}

	// config
	if err = godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file, using process environment", zap.Error(err))
	}
	cfg := config.Load()
	if cfg.App.JWTSecret == "" {
		return nil, errors.New("SERVICE_JWT_SECRET is required")
	}

	// metrics
	mCounter := metrics.NewCounter()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.App.CORSOrigins))
	r.Use(middleware.RequestLogGin(logger, mCounter))

	// httpServer
	httpSrv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		logger.Fatal("DB config error", zap.Error(err))
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err = postgres.Migrate(ctx, logger, dbPool); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// s3
	s3Client, err := s3.New(ctx, logger, cfg.S3)
	if err != nil {
		logger.Fatal("failed to connect to S3", zap.Error(err))
	}

	a := &App{
		logger:   logger,
		cfg:      cfg,
		db:       dbPool,
		s3:       s3Client,
		httpSrv:  httpSrv,
		router:   r,
		mCounter: mCounter,
		limiter:  middleware.NewRateLimiter(cfg.App.ResolveRPS, cfg.App.ResolveBurst),
	}

	// rabbitMQ, optional
	if err = a.initMQ(ctx); err != nil {
		logger.Fatal("rabbitMQ init error", zap.Error(err))
	}

	// device side
	if err = a.initDevice(ctx); err != nil {
		logger.Fatal("device storage init error", zap.Error(err))
	}

	return a, nil
}

func (a *App) initMQ(ctx context.Context) error {
	if !a.cfg.MQEnabled() {
		a.logger.Info("RABBITMQ_HOST is empty, file events are not published")
		a.events = mq.NewDiscard(a.logger)
		return nil
	}

	rabbitDsn, err := a.cfg.AMQPDSN()
	if err != nil {
		return err
	}
	rbMQ := mq.New(a.cfg.MQ, a.logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err = rbMQ.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	a.rbMQ, a.events = rbMQ, rbMQ

	// rmqConsumer
	rmqConsumer := rmqconsumer.New(a.cfg.MQ, a.logger, rbMQ.GetConn())
	if err = rmqConsumer.Connect(rabbitDsn); err != nil {
		return fmt.Errorf("consumer connect: %w", err)
	}
	if err = rmqConsumer.Init(); err != nil {
		return fmt.Errorf("consumer init: %w", err)
	}
	a.mqConsumer = rmqConsumer

	return nil
}

func (a *App) initDevice(ctx context.Context) error {
	fsys := afero.NewOsFs()

	dl, err := transfer.New(fsys, a.cfg.Device.DownloadDir, &http.Client{}, a.logger)
	if err != nil {
		return err
	}
	a.transfer = dl

	switch a.cfg.Device.Store {
	case config.StoreRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Device.RedisAddr,
			Password: a.cfg.Device.RedisPassword,
			DB:       a.cfg.Device.RedisDB,
		})
		if err = a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		host, _ := os.Hostname()
		a.kvStore = kv.NewRedisStore(a.redis, host)
	case config.StoreFile, "":
		store, err := kv.NewFileStore(fsys, filepath.Clean(a.cfg.Device.StoreFile))
		if err != nil {
			return err
		}
		a.kvStore = store
	default:
		return fmt.Errorf("unknown DEVICE_STORE %q", a.cfg.Device.Store)
	}

	a.logger.Info("device storage ready",
		zap.String("download_dir", dl.Dir()),
		zap.String("store", a.cfg.Device.Store),
	)

	return nil
}

func (a *App) Close() {
	if a.mqConsumer != nil {
		_ = a.mqConsumer.Close()
	}
	if a.rbMQ != nil {
		a.rbMQ.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.cfg.App.Host+":"+a.cfg.App.Port))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.events.PublisherWorker(ctx)
		return nil
	})

	if a.mqConsumer != nil {
		g.Go(func() error {
			a.mqConsumer.DeliveryWorker(ctx)
			return nil
		})
	}

	if a.reconciler != nil {
		g.Go(func() error {
			a.reconciler.Worker(ctx)
			return nil
		})
	}

	g.Go(func() error {
		a.limiter.CleanupWorker(ctx)
		return nil
	})

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos
	userRepo := user.NewRepository(a.db)
	recordRepo := filerecord.NewRepository(a.db)

	// services
	jwtService := jwt.New(a.cfg.App.JWTSecret)
	authService := services.NewAuthService(userRepo, jwtService, a.mCounter, a.logger, a.cfg.App.SessionTTL)
	authService.OnSessionChange(func(s *ports.Session) {
		if s == nil {
			a.logger.Info("device signed out")
			return
		}
		a.logger.Info("device signed in", zap.String("email", s.Email), zap.Time("expires_at", s.ExpiresAt))
	})

	uploadService := services.NewUploadService(
		a.s3,
		recordRepo,
		services.NewCodeGenerator(a.cfg.Code.Length),
		qrcode.New(0),
		a.events,
		a.mCounter,
		a.logger,
		a.cfg.Code.MaxAttempts,
	)
	ledger := services.NewLedger(a.kvStore, a.transfer, a.mCounter, a.logger)
	resolutionService := services.NewResolutionService(
		recordRepo,
		a.s3,
		a.transfer,
		ledger,
		a.events,
		a.mCounter,
		a.logger,
		a.cfg.S3.SignedURLTTL,
		a.cfg.Device.TransferTimeout,
	)
	a.reconciler = services.NewReconciler(
		a.s3,
		recordRepo,
		a.mCounter,
		a.logger,
		a.cfg.Reconcile.Interval,
		a.cfg.Reconcile.Grace,
	)

	// controllers
	rest.NewAuthController(a.router, a.logger, authService)
	rest.NewUploadController(a.router, uploadService, a.logger, jwtService)
	rest.NewDownloadController(a.router, resolutionService, ledger, a.logger, a.limiter.Middleware())

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }
