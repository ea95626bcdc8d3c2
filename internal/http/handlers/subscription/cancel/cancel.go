// Package cancel реализует HTTP-обработчик для отмены абонемента.
//
// Handler извлекает UID из URL-параметров и вызывает бизнес-логику отмены.
// Отмена фиксирует конец действия текущим моментом и переводит абонемент
// в терминальное состояние.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на отмену абонементов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики абонементов
}

// Service описывает интерфейс бизнес-логики отмены абонемента.
type Service interface {
	Cancel(ctx context.Context, uid string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить абонемент
// @Description Отменяет абонемент текущим моментом. Повторная отмена возвращает 404.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID абонемента"
// @Success 200 {object} map[string]any "Абонемент отменён"
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден или уже отменён"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при отмене"
// @Router /subscriptions/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	if err := h.service.Cancel(r.Context(), uid); err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			log.Error("subscription not found or already cancelled", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel subscription"))
		return
	}

	log.Info("success to cancel subscription", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"uid": uid,
	}))
}
