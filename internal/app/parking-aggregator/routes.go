// Package parkingaggregator предоставляет маршруты для основного приложения.
package parkingaggregator

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/health"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/payment/paymentlist"
	sessionclose "github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/session/close"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/session/extraservice"
	sessionopen "github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/session/open"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/subscription/extend"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/subscription/payperiod"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/subscription/read"
	tariffupdate "github.com/magabrotheeeer/parking-aggregator/internal/http/handlers/tariff/update"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/parking-aggregator/internal/services/auth"
	ratingservice "github.com/magabrotheeeer/parking-aggregator/internal/services/rating"
	subservice "github.com/magabrotheeeer/parking-aggregator/internal/services/subscription"
	tariffservice "github.com/magabrotheeeer/parking-aggregator/internal/services/tariff"
	"github.com/magabrotheeeer/parking-aggregator/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	subscriptionService *subservice.SubscriptionService,
	ratingService *ratingservice.RatingService,
	tariffService *tariffservice.TariffService,
	db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/sessions", sessionopen.New(logger, ratingService).ServeHTTP)
			r.Post("/sessions/close", sessionclose.New(logger, ratingService).ServeHTTP)
			r.Post("/sessions/extras", extraservice.New(logger, ratingService).ServeHTTP)

			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/list", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{uid}", read.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{uid}", cancel.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{uid}/extend", extend.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{uid}/periods/{seq}/pay", payperiod.New(logger, subscriptionService).ServeHTTP)

			r.Get("/payments/list", paymentlist.New(logger, db).ServeHTTP)

			// Административные операции
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Put("/tariffs", tariffupdate.New(logger, tariffService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
}
