package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, uid string) (*models.SubscriptionInfo, error) {
	args := m.Called(ctx, uid)
	if res := args.Get(0); res != nil {
		return res.(*models.SubscriptionInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	const knownUID = "0b3ff438-2d9f-44c1-a5a0-199cbbc56339"
	const missingUID = "9e0de193-7d1c-45a4-a167-fcdf2d1a1d11"

	tests := []struct {
		name           string
		uid            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение абонемента",
			uid:  knownUID,
			setupMock: func(m *MockService) {
				end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
				info := &models.SubscriptionInfo{
					Subscription: models.Subscription{
						UID:       knownUID,
						SiteID:    1,
						Spot:      42,
						Holder:    "Иванов И.И.",
						StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
						EndDate:   &end,
					},
					Plates: []string{"А123ВС77"},
					State:  models.StateActive,
				}
				m.On("Read", mock.Anything, knownUID).Return(info, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"state":"active"`,
		},
		{
			name:           "некорректный uid в URL",
			uid:            "not-a-uuid",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode uid from url"}`,
		},
		{
			name: "абонемент не найден",
			uid:  missingUID,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, missingUID).Return(nil, models.ErrSubscriptionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"subscription not found"}`,
		},
		{
			name: "ошибка сервиса чтения",
			uid:  knownUID,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, knownUID).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not read subscription"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/"+tt.uid, nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uid", tt.uid)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
