// Package extraservice реализует HTTP-обработчик регистрации дополнительной услуги.
//
// Оказанная услуга привязывается к госномеру на площадке и попадает в счёт
// при ближайшем выезде этого автомобиля, независимо от абонементного покрытия.
package extraservice

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

// Handler управляет HTTP-запросами на регистрацию дополнительных услуг.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис тарификации сессий
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики регистрации услуги.
type Service interface {
	RegisterExtraService(ctx context.Context, usage models.ExtraServiceUsage) (int, error)
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
// @Summary Зарегистрировать дополнительную услугу
// @Description Регистрирует оказанную услугу (мойку, шиномонтаж) по госномеру. Услуга будет включена в счёт при ближайшем выезде.
// @Tags Sessions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyExtraService true "Данные оказанной услуги"
// @Success 200 {object} map[string]any "Услуга зарегистрирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при регистрации услуги"
// @Router /sessions/extras [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.extraservice"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyExtraService
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

	usage := models.ExtraServiceUsage{
		SiteID:         req.SiteID,
		Plate:          req.Plate,
		ServiceID:      req.ServiceID,
		VehicleClassID: req.VehicleClassID,
	}
	id, err := h.service.RegisterExtraService(r.Context(), usage)
	if err != nil {
		log.Error("failed to register extra service", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register extra service"))
		return
	}

	log.Info("success to register extra service", slog.Int("id", id), slog.String("plate", req.Plate))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"usage_id": id,
	}))
}
