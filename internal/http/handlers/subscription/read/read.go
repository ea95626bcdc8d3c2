// Package read реализует HTTP-обработчик для получения конкретного абонемента по UID.
//
// Handler извлекает UID из URL-параметров, вызывает бизнес-логику чтения
// и возвращает абонемент с периодами и рассчитанным состоянием в JSON-формате.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Handler обрабатывает запросы на получение абонемента по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики абонементов
}

// Service описывает интерфейс бизнес-логики чтения абонемента.
type Service interface {
	Read(ctx context.Context, uid string) (*models.SubscriptionInfo, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить абонемент
// @Description Возвращает абонемент по UID с периодами, госномерами и рассчитанным состоянием.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID абонемента"
// @Success 200 {object} map[string]any "Абонемент с периодами и состоянием"
// @Failure 400 {object} response.ErrorResponse "Некорректный UID"
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении"
// @Router /subscriptions/{uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	if _, err := uuid.Parse(uid); err != nil {
		log.Error("failed to decode uid from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode uid from url"))
		return
	}

	info, err := h.service.Read(r.Context(), uid)
	if err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			log.Error("subscription not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read subscription"))
		return
	}

	log.Info("success to read subscription", slog.String("uid", uid), slog.String("state", string(info.State)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": info,
	}))
}
