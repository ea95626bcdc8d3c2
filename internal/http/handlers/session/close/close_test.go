package close

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// MockService реализует интерфейс close.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) CloseSession(ctx context.Context, uid string) (*models.RateResult, *models.Payment, error) {
	args := m.Called(ctx, uid)
	var result *models.RateResult
	var payment *models.Payment
	if res := args.Get(0); res != nil {
		result = res.(*models.RateResult)
	}
	if p := args.Get(1); p != nil {
		payment = p.(*models.Payment)
	}
	return result, payment, args.Error(2)
}

func TestCloseHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	const sessionUID = "e7f1c8b4-2a52-4f7a-8d76-97e2153cd345"

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное закрытие с платежом",
			body: `{"session_uid":"` + sessionUID + `"}`,
			setupMock: func(m *MockService) {
				result := &models.RateResult{
					LineItems: []models.LineItem{
						{ServiceName: "3 часа", Units: 1, Amount: 250},
						{ServiceName: "Доля часа", Units: 1, Amount: 50},
					},
					Total:           300,
					TotalMinutes:    200,
					BillableMinutes: 200,
				}
				payment := &models.Payment{ID: 7, SiteID: 1, Number: 14, Amount: 300}
				m.On("CloseSession", mock.Anything, sessionUID).Return(result, payment, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"Number":14`,
		},
		{
			name: "полностью покрытый выезд без платежа",
			body: `{"session_uid":"` + sessionUID + `"}`,
			setupMock: func(m *MockService) {
				result := &models.RateResult{Total: 0, TotalMinutes: 90, Covered: true}
				m.On("CloseSession", mock.Anything, sessionUID).Return(result, nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"covered":true`,
		},
		{
			name:           "некорректный JSON",
			body:           `{not json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "невалидный uid",
			body:           `{"session_uid":"abc"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name: "сессия не найдена",
			body: `{"session_uid":"` + sessionUID + `"}`,
			setupMock: func(m *MockService) {
				m.On("CloseSession", mock.Anything, sessionUID).
					Return(nil, nil, models.ErrSessionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"session not found"}`,
		},
		{
			name: "нет тарифа на площадке",
			body: `{"session_uid":"` + sessionUID + `"}`,
			setupMock: func(m *MockService) {
				m.On("CloseSession", mock.Anything, sessionUID).
					Return(nil, nil, models.ErrTariffNotFound)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"no active tariff for this site"}`,
		},
		{
			name: "ошибка сервиса",
			body: `{"session_uid":"` + sessionUID + `"}`,
			setupMock: func(m *MockService) {
				m.On("CloseSession", mock.Anything, sessionUID).
					Return(nil, nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not close session"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/sessions/close", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
