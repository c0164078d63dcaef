package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "usersvc/api/handler"
	"usersvc/internal/config"
	"usersvc/internal/infrastructure/audit"
	"usersvc/internal/infrastructure/monitor"
	pgInfra "usersvc/internal/infrastructure/postgres"
	redisInfra "usersvc/internal/infrastructure/redis"
	"usersvc/internal/middleware"
	"usersvc/internal/router"
	"usersvc/internal/services"
	"usersvc/internal/services/lifecycle"
	"usersvc/pkg/httpcontext"
	"usersvc/pkg/logger"
	"usersvc/repository"
	"usersvc/repository/postgres"
	redisRepo "usersvc/repository/redis"
	usersUC "usersvc/usecase/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	auditStore, err := audit.Open(cfg.Audit.Path, "audit")
	if err != nil {
		zapLogger.Fatal("failed to open audit store", zap.Error(err))
	}
	manager.Register("audit", func(ctx context.Context) error {
		return auditStore.Close()
	})

	mon := monitor.New(pool, redisClient, auditStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var userRepo repository.UserRepository = postgres.NewUserRepository(pool)
	if cfg.Cache.Enabled {
		userRepo = redisRepo.NewUserCache(userRepo, redisClient, cfg.Cache.TTL)
	}

	auditRecorder := services.NewAuditRecorder(auditStore, zapLogger, services.RecorderConfig{
		PruneInterval: cfg.Audit.PruneInterval,
		Retention:     cfg.Audit.Retention,
	})
	auditRecorder.Start()
	manager.Register("audit_recorder", func(ctx context.Context) error {
		auditRecorder.Stop(ctx)
		return nil
	})

	userUseCase := usersUC.New(userRepo, auditRecorder, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	requestRef := middleware.RequestRef(zapLogger)
	r := router.New(handlers, requestRef)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
