// Package create реализует HTTP-обработчик для оформления новых абонементов.
//
// Handler принимает JSON-запрос с данными абонемента, валидирует их,
// вызывает бизнес-логику оформления и возвращает абонемент с периодами
// и рассчитанным состоянием в JSON-формате.
//
// Конфликт места с другим абонементом возвращается как HTTP 409 Conflict
// с описанием конфликтующего диапазона.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на оформление новых абонементов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики абонементов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики оформления абонемента.
type Service interface {
	Create(ctx context.Context, req models.DummySubscription) (*models.SubscriptionInfo, error)
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
// @Summary Оформить новый абонемент
// @Description Оформляет абонемент на место с генерацией расчётных периодов. Возвращает абонемент с периодами и состоянием.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummySubscription true "Данные нового абонемента"
// @Success 200 {object} map[string]any "Успешное оформление абонемента"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или дата"
// @Failure 409 {object} response.ErrorResponse "Место занято другим абонементом"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при оформлении"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscription
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	info, err := h.service.Create(r.Context(), req)
	if err != nil {
		var overlapErr *models.OverlapError
		switch {
		case errors.As(err, &overlapErr):
			log.Error("spot conflict", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(overlapErr.Error()))
		case errors.Is(err, models.ErrInvalidPeriodCount):
			log.Error("invalid period count", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, models.ErrTariffNotFound):
			log.Error("no tariff for subscription", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("no active tariff for this service"))
		default:
			log.Error("failed to create subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create subscription"))
		}
		return
	}

	log.Info("success to create subscription", slog.String("uid", info.Subscription.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": info,
	}))
}
