package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ReadService(ctx context.Context, serviceID int) (*models.Service, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *RepoMock) CreateSubscriptionWithPeriods(ctx context.Context, sub models.Subscription,
	periods []models.Period, plates []string) (*models.Subscription, error) {
	args := m.Called(ctx, sub, periods, plates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) ReadSubscriptionByUID(ctx context.Context, uid string) (*models.Subscription, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) ListPeriods(ctx context.Context, subscriptionID int) ([]models.Period, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Period), args.Error(1)
}
func (m *RepoMock) ListSubscribedPlates(ctx context.Context, subscriptionID int) ([]string, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *RepoMock) ListNonCancelledSubscriptions(ctx context.Context, siteID, spot int) ([]*models.Subscription, error) {
	args := m.Called(ctx, siteID, spot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) ListSubscriptionsBySite(ctx context.Context, siteID, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, siteID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) AppendPeriods(ctx context.Context, subscriptionID int, periods []models.Period, newEndDate time.Time) error {
	return m.Called(ctx, subscriptionID, periods, newEndDate).Error(0)
}
func (m *RepoMock) CancelSubscription(ctx context.Context, uid string, at time.Time) (int, error) {
	args := m.Called(ctx, uid, at)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) MarkPeriodPaid(ctx context.Context, subscriptionID, seq, siteID int, amount float64, paidOn time.Time) error {
	return m.Called(ctx, subscriptionID, seq, siteID, amount, paidOn).Error(0)
}

type TariffsMock struct{ mock.Mock }

func (m *TariffsMock) CurrentTariff(ctx context.Context, siteID, serviceID, vehicleClassID int, asOf time.Time) (*models.Tariff, error) {
	args := m.Called(ctx, siteID, serviceID, vehicleClassID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tariff), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func monthlyService() *models.Service {
	return &models.Service{
		ID:        3,
		Name:      "Абонемент на месяц",
		Type:      models.ServiceTypeSubscription,
		Unit:      models.UnitMonth,
		UnitCount: 1,
	}
}

func TestSubscriptionService_Create(t *testing.T) {
	futureStart := time.Now().UTC().AddDate(0, 0, 10)
	req := models.DummySubscription{
		SiteID:         1,
		Spot:           42,
		Holder:         "Иванов И.И.",
		HolderEmail:    "ivanov@example.com",
		ServiceID:      3,
		VehicleClassID: 2,
		StartDate:      futureStart.Format("02-01-2006"),
		CounterPeriods: 3,
		PaidPeriods:    2,
		Plates:         []string{"А123ВС77"},
	}

	t.Run("success create with scheduled start", func(t *testing.T) {
		repo := new(RepoMock)
		tariffs := new(TariffsMock)
		cache := new(CacheMock)

		repo.On("ReadService", mock.Anything, 3).Return(monthlyService(), nil).Once()
		tariffs.On("CurrentTariff", mock.Anything, 1, 3, 2, mock.Anything).
			Return(&models.Tariff{Amount: 3000}, nil).Once()
		repo.On("ListNonCancelledSubscriptions", mock.Anything, 1, 42).
			Return([]*models.Subscription{}, nil).Once()

		var capturedPeriods []models.Period
		repo.On("CreateSubscriptionWithPeriods", mock.Anything, mock.Anything, mock.Anything, req.Plates).
			Run(func(args mock.Arguments) {
				capturedPeriods = args.Get(2).([]models.Period)
			}).
			Return(&models.Subscription{ID: 7, UID: "uid-7", SiteID: 1, Spot: 42}, nil).Once()
		cache.On("Set", "subscription:uid-7", mock.Anything, time.Hour).Return(nil).Once()

		svc := NewSubscriptionService(repo, tariffs, cache, newNoopLogger())
		info, err := svc.Create(context.Background(), req)

		require.NoError(t, err)
		require.NotNil(t, info)
		require.Len(t, capturedPeriods, 3)

		// Первые два периода оплачены, третий нет
		assert.True(t, capturedPeriods[0].Paid)
		assert.True(t, capturedPeriods[1].Paid)
		assert.False(t, capturedPeriods[2].Paid)

		// Цена зафиксирована из тарифа на момент оформления
		for _, p := range capturedPeriods {
			assert.InDelta(t, 3000.0, p.Amount, 0.001)
		}

		// Номера периодов плотные, периоды идут встык по дням
		assert.Equal(t, 1, capturedPeriods[0].Seq)
		assert.Equal(t, 2, capturedPeriods[1].Seq)
		assert.Equal(t, 3, capturedPeriods[2].Seq)

		// Отложенный абонемент: начало в полночь, концы в 23:59:59
		first := capturedPeriods[0]
		assert.Equal(t, 0, first.StartDate.Hour())
		assert.Equal(t, 23, first.EndDate.Hour())
		assert.Equal(t, 59, first.EndDate.Minute())
		assert.Equal(t, 59, first.EndDate.Second())

		repo.AssertExpectations(t)
		tariffs.AssertExpectations(t)
	})

	t.Run("non-positive period count", func(t *testing.T) {
		svc := NewSubscriptionService(new(RepoMock), new(TariffsMock), new(CacheMock), newNoopLogger())

		for _, count := range []int{0, -1} {
			bad := req
			bad.CounterPeriods = count
			bad.PaidPeriods = count - 1

			_, err := svc.Create(context.Background(), bad)
			require.ErrorIs(t, err, models.ErrInvalidPeriodCount)
		}
	})

	t.Run("paid periods exceed total", func(t *testing.T) {
		svc := NewSubscriptionService(new(RepoMock), new(TariffsMock), new(CacheMock), newNoopLogger())
		bad := req
		bad.PaidPeriods = 5

		_, err := svc.Create(context.Background(), bad)
		require.ErrorIs(t, err, models.ErrInvalidPeriodCount)
	})

	t.Run("invalid date", func(t *testing.T) {
		svc := NewSubscriptionService(new(RepoMock), new(TariffsMock), new(CacheMock), newNoopLogger())
		bad := req
		bad.StartDate = "2026-01-01"

		_, err := svc.Create(context.Background(), bad)
		require.Error(t, err)
	})

	t.Run("spot conflict", func(t *testing.T) {
		repo := new(RepoMock)
		tariffs := new(TariffsMock)
		cache := new(CacheMock)

		otherEnd := futureStart.AddDate(0, 6, 0)
		repo.On("ReadService", mock.Anything, 3).Return(monthlyService(), nil).Once()
		tariffs.On("CurrentTariff", mock.Anything, 1, 3, 2, mock.Anything).
			Return(&models.Tariff{Amount: 3000}, nil).Once()
		repo.On("ListNonCancelledSubscriptions", mock.Anything, 1, 42).
			Return([]*models.Subscription{
				{UID: "other-uid", StartDate: futureStart.AddDate(0, -1, 0), EndDate: &otherEnd},
			}, nil).Once()

		svc := NewSubscriptionService(repo, tariffs, cache, newNoopLogger())
		_, err := svc.Create(context.Background(), req)

		var overlapErr *models.OverlapError
		require.ErrorAs(t, err, &overlapErr)
		assert.Equal(t, "other-uid", overlapErr.SubscriptionUID)
	})

	t.Run("not a subscription service", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadService", mock.Anything, 3).
			Return(&models.Service{ID: 3, Name: "Мойка", Type: models.ServiceTypeExtra}, nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), new(CacheMock), newNoopLogger())
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
	})
}

func TestSubscriptionService_Extend(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 2, 0)
	sub := &models.Subscription{
		ID: 7, UID: "uid-7", SiteID: 1, Spot: 42,
		ServiceID: 3, VehicleClassID: 2,
		StartDate: start, EndDate: &end,
	}
	periods := []models.Period{
		{Seq: 1, StartDate: start, EndDate: start.AddDate(0, 1, 0), Amount: 3000, Paid: true},
		{Seq: 2, StartDate: start.AddDate(0, 1, 0), EndDate: end, Amount: 3000},
	}

	t.Run("success extend keeps frozen price", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)

		repo.On("ReadSubscriptionByUID", mock.Anything, "uid-7").Return(sub, nil).Twice()
		repo.On("ListPeriods", mock.Anything, 7).Return(periods, nil).Twice()
		repo.On("ReadService", mock.Anything, 3).Return(monthlyService(), nil).Once()
		repo.On("ListNonCancelledSubscriptions", mock.Anything, 1, 42).
			Return([]*models.Subscription{sub}, nil).Once()

		var capturedPeriods []models.Period
		repo.On("AppendPeriods", mock.Anything, 7, mock.Anything, end.AddDate(0, 2, 0)).
			Run(func(args mock.Arguments) {
				capturedPeriods = args.Get(2).([]models.Period)
			}).
			Return(nil).Once()
		repo.On("ListSubscribedPlates", mock.Anything, 7).Return([]string{"А123ВС77"}, nil).Once()
		cache.On("Invalidate", "subscription:uid-7").Return(nil).Once()
		cache.On("Get", "subscription:uid-7", mock.Anything).Return(false, nil).Once()
		cache.On("Set", "subscription:uid-7", mock.Anything, time.Hour).Return(nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), cache, newNoopLogger())
		_, err := svc.Extend(context.Background(), "uid-7", 2)

		require.NoError(t, err)
		require.Len(t, capturedPeriods, 2)
		assert.Equal(t, 3, capturedPeriods[0].Seq)
		assert.Equal(t, 4, capturedPeriods[1].Seq)
		assert.True(t, capturedPeriods[0].StartDate.Equal(end))
		assert.InDelta(t, 3000.0, capturedPeriods[0].Amount, 0.001)
		assert.False(t, capturedPeriods[0].Paid)

		repo.AssertExpectations(t)
	})

	t.Run("cancelled subscription", func(t *testing.T) {
		repo := new(RepoMock)
		cancelled := *sub
		cancelled.Cancelled = true
		repo.On("ReadSubscriptionByUID", mock.Anything, "uid-7").Return(&cancelled, nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), new(CacheMock), newNoopLogger())
		_, err := svc.Extend(context.Background(), "uid-7", 2)
		require.Error(t, err)
	})

	t.Run("invalid period count", func(t *testing.T) {
		svc := NewSubscriptionService(new(RepoMock), new(TariffsMock), new(CacheMock), newNoopLogger())
		_, err := svc.Extend(context.Background(), "uid-7", 0)
		require.ErrorIs(t, err, models.ErrInvalidPeriodCount)
	})
}

func TestSubscriptionService_Cancel(t *testing.T) {
	t.Run("success cancel", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("CancelSubscription", mock.Anything, "uid-7", mock.Anything).Return(1, nil).Once()
		cache.On("Invalidate", "subscription:uid-7").Return(nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), cache, newNoopLogger())
		err := svc.Cancel(context.Background(), "uid-7")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown uid", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CancelSubscription", mock.Anything, "missing", mock.Anything).Return(0, nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), new(CacheMock), newNoopLogger())
		err := svc.Cancel(context.Background(), "missing")
		require.ErrorIs(t, err, models.ErrSubscriptionNotFound)
	})

	t.Run("storage error", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CancelSubscription", mock.Anything, "uid-7", mock.Anything).
			Return(0, errors.New("db down")).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), new(CacheMock), newNoopLogger())
		err := svc.Cancel(context.Background(), "uid-7")
		require.Error(t, err)
	})
}

func TestSubscriptionService_PayPeriod(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	sub := &models.Subscription{ID: 7, UID: "uid-7", SiteID: 1, StartDate: start, EndDate: &end}
	periods := []models.Period{
		{Seq: 1, StartDate: start, EndDate: end, Amount: 3000},
	}

	t.Run("success pay", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("ReadSubscriptionByUID", mock.Anything, "uid-7").Return(sub, nil).Once()
		repo.On("ListPeriods", mock.Anything, 7).Return(periods, nil).Once()
		repo.On("MarkPeriodPaid", mock.Anything, 7, 1, 1, 3000.0, mock.MatchedBy(func(paidOn time.Time) bool {
			return paidOn.Hour() == 12 && paidOn.Minute() == 0
		})).Return(nil).Once()
		cache.On("Invalidate", "subscription:uid-7").Return(nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), cache, newNoopLogger())
		err := svc.PayPeriod(context.Background(), "uid-7", 1)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("already paid", func(t *testing.T) {
		repo := new(RepoMock)
		paid := []models.Period{{Seq: 1, StartDate: start, EndDate: end, Amount: 3000, Paid: true}}
		repo.On("ReadSubscriptionByUID", mock.Anything, "uid-7").Return(sub, nil).Once()
		repo.On("ListPeriods", mock.Anything, 7).Return(paid, nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), new(CacheMock), newNoopLogger())
		err := svc.PayPeriod(context.Background(), "uid-7", 1)
		require.Error(t, err)
	})

	t.Run("unknown seq", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadSubscriptionByUID", mock.Anything, "uid-7").Return(sub, nil).Once()
		repo.On("ListPeriods", mock.Anything, 7).Return(periods, nil).Once()

		svc := NewSubscriptionService(repo, new(TariffsMock), new(CacheMock), newNoopLogger())
		err := svc.PayPeriod(context.Background(), "uid-7", 9)
		require.Error(t, err)
	})
}
