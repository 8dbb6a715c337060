package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/jinwuui/celeb-library-api-sub000/internal/api/http"
	"github.com/jinwuui/celeb-library-api-sub000/internal/api/http/handlers"
	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
	"github.com/jinwuui/celeb-library-api-sub000/internal/config"
	"github.com/jinwuui/celeb-library-api-sub000/internal/events"
	"github.com/jinwuui/celeb-library-api-sub000/internal/observability"
	"github.com/jinwuui/celeb-library-api-sub000/internal/persistence"
	"github.com/jinwuui/celeb-library-api-sub000/internal/repository"
	"github.com/jinwuui/celeb-library-api-sub000/internal/service"
	"github.com/jinwuui/celeb-library-api-sub000/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var sessionCache auth.SessionCache
	if cfg.Redis.SessionCache {
		sessionCache = auth.NewRedisSessionCache(redis.Client, cfg.Auth.RefreshTokenTTL())
	} else {
		memCache := auth.NewMemorySessionCache()
		defer memCache.Close()
		sessionCache = memCache
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	postRepo := repository.NewPostRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Cache:      sessionCache,
		Dispatcher: dispatcher,
	})
	postService := service.NewPostService(postRepo)

	resolver := auth.NewIdentityResolver(userRepo, sessionCache)
	gates := auth.NewGates(authService, authService.TokenCodec(), httptransport.GateRoutes(), logger)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), gates)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:   handlers.NewAuthHandler(authService),
		Users:  handlers.NewUsersHandler(resolver),
		Posts:  handlers.NewPostsHandler(resolver, postService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
