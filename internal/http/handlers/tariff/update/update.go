// Package update реализует HTTP-обработчик смены тарифа.
//
// Handler принимает новую цену для тройки (площадка, услуга, класс ТС),
// валидирует её и делегирует смену сервису тарифов: действующий тариф
// закрывается текущим моментом, после чего вставляется новый.
// Доступно только операторам с ролью admin.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на смену тарифов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики тарифов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики смены тарифа.
type Service interface {
	Update(ctx context.Context, req models.DummyTariff) (int, error)
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
// @Summary Сменить тариф
// @Description Закрывает действующий тариф тройки (площадка, услуга, класс ТС) и вставляет новый с текущего момента. Требует роли admin.
// @Tags Tariffs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyTariff true "Новая цена"
// @Success 200 {object} map[string]any "Идентификатор нового тарифа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при смене тарифа"
// @Router /tariffs [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyTariff
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

	id, err := h.service.Update(r.Context(), req)
	if err != nil {
		log.Error("failed to update tariff", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update tariff"))
		return
	}

	log.Info("success to update tariff", slog.Int("tariff_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"tariff_id": id,
	}))
}
