package repository

import (
	"context"
	"testing"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_CreatePayment(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	siteA := factory.CreateSite(t, "Центральная парковка", false)
	siteB := factory.CreateSite(t, "Парковка у вокзала", false)

	ctx := context.Background()

	first, err := storage.CreatePayment(ctx, siteA, 100.0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)

	second, err := storage.CreatePayment(ctx, siteA, 250.0)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)

	// Нумерация на другой площадке идет независимо
	other, err := storage.CreatePayment(ctx, siteB, 50.0)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Number)

	third, err := storage.CreatePayment(ctx, siteA, 75.0)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Number)
}

func TestStorage_FindTariff(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	siteID := factory.CreateSite(t, "Центральная парковка", false)
	classID := factory.CreateVehicleClass(t, "Легковой")
	serviceID := factory.CreateService(t, "Абонемент на месяц", "subscription", "month", 1, nil)

	oldStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	factory.CreateTariff(t, siteID, serviceID, classID, 3000.0, oldStart, &newStart)
	factory.CreateTariff(t, siteID, serviceID, classID, 3500.0, newStart, nil)

	ctx := context.Background()

	tests := []struct {
		name       string
		asOf       time.Time
		wantAmount float64
		wantErr    error
	}{
		{
			name:       "действует старый тариф",
			asOf:       time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			wantAmount: 3000.0,
		},
		{
			name:       "после смены действует новый тариф",
			asOf:       time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
			wantAmount: 3500.0,
		},
		{
			name:    "до начала действия тарифа",
			asOf:    time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
			wantErr: models.ErrTariffNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.FindTariff(ctx, siteID, serviceID, classID, tt.asOf)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.InDelta(t, tt.wantAmount, got.Amount, 0.001)
		})
	}
}

func TestStorage_CreateSubscriptionWithPeriods(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	siteID := factory.CreateSite(t, "Центральная парковка", false)
	classID := factory.CreateVehicleClass(t, "Легковой")
	serviceID := factory.CreateService(t, "Абонемент на месяц", "subscription", "month", 1, nil)

	ctx := context.Background()
	start := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	paidOn := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	sub := models.Subscription{
		SiteID:         siteID,
		Spot:           42,
		Holder:         "Иванов И.И.",
		HolderEmail:    "ivanov@example.com",
		ServiceID:      serviceID,
		VehicleClassID: classID,
		StartDate:      start,
		EndDate:        &end,
	}
	periods := []models.Period{
		{Seq: 1, StartDate: start, EndDate: start.AddDate(0, 1, 0), Amount: 3000, Paid: true, PaidOn: &paidOn},
		{Seq: 2, StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 2, 0), Amount: 3000, Paid: true, PaidOn: &paidOn},
		{Seq: 3, StartDate: start.AddDate(0, 2, 0), EndDate: end, Amount: 3000},
	}
	plates := []string{"А123ВС77", "Е456КХ99"}

	created, err := storage.CreateSubscriptionWithPeriods(ctx, sub, periods, plates)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.UID)
	require.NotNil(t, created.PaymentID, "оплаченные периоды должны провести платеж")

	// Платеж выставлен на сумму оплаченных периодов
	var amount float64
	err = storage.DB.QueryRow("SELECT amount FROM payments WHERE id = $1", *created.PaymentID).Scan(&amount)
	require.NoError(t, err)
	assert.InDelta(t, 6000.0, amount, 0.001)

	got, err := storage.ReadSubscriptionByUID(ctx, created.UID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Spot)
	assert.False(t, got.Cancelled)

	gotPeriods, err := storage.ListPeriods(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, gotPeriods, 3)
	assert.True(t, gotPeriods[0].Paid)
	assert.True(t, gotPeriods[1].Paid)
	assert.False(t, gotPeriods[2].Paid)
	assert.Nil(t, gotPeriods[2].PaymentID)

	gotPlates, err := storage.ListSubscribedPlates(ctx, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, plates, gotPlates)
}

func TestStorage_AppendPeriods(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	siteID := factory.CreateSite(t, "Центральная парковка", false)
	classID := factory.CreateVehicleClass(t, "Легковой")
	serviceID := factory.CreateService(t, "Абонемент на месяц", "subscription", "month", 1, nil)

	ctx := context.Background()
	start := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	created, err := storage.CreateSubscriptionWithPeriods(ctx, models.Subscription{
		SiteID: siteID, Spot: 7, Holder: "Петров П.П.",
		ServiceID: serviceID, VehicleClassID: classID,
		StartDate: start, EndDate: &end,
	}, []models.Period{
		{Seq: 1, StartDate: start, EndDate: end, Amount: 3000},
	}, []string{"М777ММ77"})
	require.NoError(t, err)

	newEnd := start.AddDate(0, 3, 0)
	err = storage.AppendPeriods(ctx, created.ID, []models.Period{
		{Seq: 2, StartDate: end, EndDate: start.AddDate(0, 2, 0), Amount: 3000},
		{Seq: 3, StartDate: start.AddDate(0, 2, 0), EndDate: newEnd, Amount: 3000},
	}, newEnd)
	require.NoError(t, err)

	gotPeriods, err := storage.ListPeriods(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, gotPeriods, 3)
	assert.Equal(t, 3, gotPeriods[2].Seq)

	got, err := storage.ReadSubscriptionByUID(ctx, created.UID)
	require.NoError(t, err)
	require.NotNil(t, got.EndDate)
	assert.True(t, newEnd.Equal(*got.EndDate))
}

func TestStorage_CancelSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	siteID := factory.CreateSite(t, "Центральная парковка", false)
	classID := factory.CreateVehicleClass(t, "Легковой")
	serviceID := factory.CreateService(t, "Абонемент на месяц", "subscription", "month", 1, nil)

	ctx := context.Background()
	start := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	created, err := storage.CreateSubscriptionWithPeriods(ctx, models.Subscription{
		SiteID: siteID, Spot: 7, Holder: "Петров П.П.",
		ServiceID: serviceID, VehicleClassID: classID,
		StartDate: start, EndDate: &end,
	}, []models.Period{
		{Seq: 1, StartDate: start, EndDate: end, Amount: 3000},
	}, nil)
	require.NoError(t, err)

	at := time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC)
	rowsAffected, err := storage.CancelSubscription(ctx, created.UID, at)
	require.NoError(t, err)
	assert.Equal(t, 1, rowsAffected)

	got, err := storage.ReadSubscriptionByUID(ctx, created.UID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
	require.NotNil(t, got.EndDate)
	assert.True(t, at.Equal(*got.EndDate))

	// Повторная отмена ничего не меняет
	rowsAffected, err = storage.CancelSubscription(ctx, created.UID, at)
	require.NoError(t, err)
	assert.Equal(t, 0, rowsAffected)
}

func TestStorage_CloseSession(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	siteID := factory.CreateSite(t, "Центральная парковка", false)
	classID := factory.CreateVehicleClass(t, "Легковой")

	ctx := context.Background()
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("закрытие с платежом", func(t *testing.T) {
		session, err := storage.CreateSession(ctx, models.Session{
			SiteID: siteID, Spot: 11, Plate: "А123ВС77",
			VehicleClassID: classID, StartDate: start,
		})
		require.NoError(t, err)

		endDate := start.Add(90 * time.Minute)
		payment, err := storage.CloseSession(ctx, session.ID, endDate, siteID, 150.0, nil)
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.InDelta(t, 150.0, payment.Amount, 0.001)

		// Закрытая сессия больше не находится как открытая
		_, err = storage.FindOpenSessionByUID(ctx, session.UID)
		require.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run("полностью покрытый выезд без платежа", func(t *testing.T) {
		session, err := storage.CreateSession(ctx, models.Session{
			SiteID: siteID, Spot: 12, Plate: "Е456КХ99",
			VehicleClassID: classID, StartDate: start,
		})
		require.NoError(t, err)

		payment, err := storage.CloseSession(ctx, session.ID, start.Add(time.Hour), siteID, 0, nil)
		require.NoError(t, err)
		assert.Nil(t, payment)
	})

	t.Run("повторное закрытие", func(t *testing.T) {
		session, err := storage.CreateSession(ctx, models.Session{
			SiteID: siteID, Spot: 13, Plate: "М777ММ77",
			VehicleClassID: classID, StartDate: start,
		})
		require.NoError(t, err)

		_, err = storage.CloseSession(ctx, session.ID, start.Add(time.Hour), siteID, 0, nil)
		require.NoError(t, err)

		_, err = storage.CloseSession(ctx, session.ID, start.Add(2*time.Hour), siteID, 0, nil)
		require.ErrorIs(t, err, models.ErrSessionNotFound)
	})
}
