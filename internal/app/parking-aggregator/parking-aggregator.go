// Package parkingaggregator собирает основное приложение: HTTP API
// парковочного биллинга с тарификацией сессий и абонементами.
package parkingaggregator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/parking-aggregator/internal/cache"
	"github.com/magabrotheeeer/parking-aggregator/internal/config"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/parking-aggregator/internal/migrations"
	authservice "github.com/magabrotheeeer/parking-aggregator/internal/services/auth"
	ratingservice "github.com/magabrotheeeer/parking-aggregator/internal/services/rating"
	subservice "github.com/magabrotheeeer/parking-aggregator/internal/services/subscription"
	tariffservice "github.com/magabrotheeeer/parking-aggregator/internal/services/tariff"
	"github.com/magabrotheeeer/parking-aggregator/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker)
	tariffService := tariffservice.NewTariffService(db, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, tariffService, cacheRedis, logger)
	ratingService := ratingservice.NewRatingService(db, tariffService, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, authService, subscriptionService, ratingService, tariffService, db)

	router.Get("/docs/*", httpSwagger.WrapHandler)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  *cacheRedis,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
