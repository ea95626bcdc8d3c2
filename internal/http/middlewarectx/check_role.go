package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
)

// AdminOnlyMiddleware создает middleware, пропускающий только операторов с ролью admin.
// Используется на административных операциях: смене тарифов и регистрации операторов.
func AdminOnlyMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || role == "" {
				log.Error("operator role missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("operator role missing"))
				return
			}

			if role != "admin" {
				log.Error("access denied", slog.String("role", role))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("admin role required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
