// Package payperiod реализует HTTP-обработчик оплаты расчётного периода абонемента.
//
// Handler извлекает UID абонемента и номер периода из URL-параметров,
// проводит платёж через бизнес-логику и возвращает подтверждение.
package payperiod

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-aggregator/internal/http/response"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на оплату периодов абонемента.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики абонементов
}

// Service описывает интерфейс бизнес-логики оплаты периода.
type Service interface {
	PayPeriod(ctx context.Context, uid string, seq int) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Оплатить период абонемента
// @Description Проводит платёж за расчётный период и отмечает его оплаченным.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID абонемента"
// @Param seq path int true "Номер периода"
// @Success 200 {object} map[string]any "Период оплачен"
// @Failure 400 {object} response.ErrorResponse "Некорректный номер периода или период уже оплачен"
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при оплате"
// @Router /subscriptions/{uid}/periods/{seq}/pay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.payperiod"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		log.Error("failed to decode seq from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode seq from url"))
		return
	}

	if err := h.service.PayPeriod(r.Context(), uid, seq); err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			log.Error("subscription not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to pay period", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to pay period", slog.String("uid", uid), slog.Int("seq", seq))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"uid": uid,
		"seq": seq,
	}))
}
