// Package close реализует HTTP-обработчик выезда: тарификацию и закрытие сессии.
//
// Handler принимает UID открытой сессии, вызывает движок тарификации и
// возвращает счёт со строками, итоговой суммой и номером платежа.
// Полностью покрытый абонементом выезд закрывается с нулевой суммой
// без платежа.
package close

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

// Handler управляет HTTP-запросами на закрытие парковочных сессий.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис тарификации сессий
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики закрытия сессии.
type Service interface {
	CloseSession(ctx context.Context, uid string) (*models.RateResult, *models.Payment, error)
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
// @Summary Закрыть парковочную сессию
// @Description Тарифицирует выезд: считает оплачиваемые минуты с учётом абонементного покрытия, раскладывает их по тарифным ступеням, добавляет невыставленные дополнительные услуги и закрывает сессию. При ненулевой сумме проводит платёж.
// @Tags Sessions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyCloseSession true "UID открытой сессии"
// @Success 200 {object} map[string]any "Счёт и платёж"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или нет тарифа"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена или уже закрыта"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при закрытии сессии"
// @Router /sessions/close [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.close"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCloseSession
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

	result, payment, err := h.service.CloseSession(r.Context(), req.SessionUID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSessionNotFound):
			log.Error("session not found or already closed", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("session not found"))
		case errors.Is(err, models.ErrTariffNotFound):
			log.Error("no tariff for session", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("no active tariff for this site"))
		default:
			log.Error("failed to close session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not close session"))
		}
		return
	}

	log.Info("success to close session",
		slog.String("uid", req.SessionUID), slog.Float64("total", result.Total))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"rate":    result,
		"payment": payment,
	}))
}
