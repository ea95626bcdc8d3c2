// Package extend реализует HTTP-обработчик для продления абонемента.
//
// Handler извлекает UID из URL-параметров, принимает количество добавляемых
// периодов, вызывает бизнес-логику продления и возвращает обновленный
// абонемент в JSON-формате. Цена добавленных периодов равна цене,
// зафиксированной при оформлении.
package extend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на продление абонементов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики абонементов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики продления абонемента.
type Service interface {
	Extend(ctx context.Context, uid string, counterPeriods int) (*models.SubscriptionInfo, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Продлить абонемент
// @Description Добавляет расчётные периоды к абонементу по цене, зафиксированной при оформлении.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID абонемента"
// @Param request body models.DummyExtend true "Количество добавляемых периодов"
// @Success 200 {object} map[string]any "Обновленный абонемент"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или количество периодов"
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Failure 409 {object} response.ErrorResponse "Продление пересекается с другим абонементом"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при продлении"
// @Router /subscriptions/{uid}/extend [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.extend"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	var req models.DummyExtend
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	info, err := h.service.Extend(r.Context(), uid, req.CounterPeriods)
	if err != nil {
		var overlapErr *models.OverlapError
		switch {
		case errors.As(err, &overlapErr):
			log.Error("spot conflict on extend", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(overlapErr.Error()))
		case errors.Is(err, models.ErrSubscriptionNotFound):
			log.Error("subscription not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
		case errors.Is(err, models.ErrInvalidPeriodCount):
			log.Error("invalid period count", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to extend subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not extend subscription"))
		}
		return
	}

	log.Info("success to extend subscription",
		slog.String("uid", uid), slog.Int("added_periods", req.CounterPeriods))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": info,
	}))
}
