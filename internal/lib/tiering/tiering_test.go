package tiering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

func tiers() []models.TariffTier {
	return []models.TariffTier{
		{ServiceID: 1, ServiceName: "fraction", DurationMinutes: 30, Amount: 50},
		{ServiceID: 2, ServiceName: "hour", DurationMinutes: 60, Amount: 90},
		{ServiceID: 3, ServiceName: "2 hours", DurationMinutes: 120, Amount: 150},
	}
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name      string
		minutes   int
		tiers     []models.TariffTier
		wantTotal float64
		wantItems []models.LineItem
		wantErr   error
	}{
		{
			name:      "ноль минут не тарифицируется",
			minutes:   0,
			tiers:     tiers(),
			wantItems: nil,
		},
		{
			name:      "до получаса — одна доля",
			minutes:   20,
			tiers:     tiers(),
			wantItems: []models.LineItem{{ServiceName: "fraction", Units: 1, Amount: 50}},
		},
		{
			name:    "45 минут — ровно один час, не доли",
			minutes: 45,
			tiers:   tiers(),
			wantItems: []models.LineItem{
				{ServiceName: "hour", Units: 1, Amount: 90},
			},
		},
		{
			name:    "80 минут: блок 120 не помещается, остаток 80 > 30 — два часа",
			minutes: 80,
			tiers:   tiers(),
			wantItems: []models.LineItem{
				{ServiceName: "hour", Units: 2, Amount: 180},
			},
		},
		{
			name:    "270 минут: два блока по 2 часа плюс доля",
			minutes: 270,
			tiers:   tiers(),
			wantItems: []models.LineItem{
				{ServiceName: "2 hours", Units: 2, Amount: 300},
				{ServiceName: "fraction", Units: 1, Amount: 50},
			},
		},
		{
			name:    "крупный остаток добивается часами с округлением вверх",
			minutes: 215, // 120 + 95: 95 > 30 -> ceil(95/60) = 2 часа
			tiers:   tiers(),
			wantItems: []models.LineItem{
				{ServiceName: "2 hours", Units: 1, Amount: 150},
				{ServiceName: "hour", Units: 2, Amount: 180},
			},
		},
		{
			name:    "без тарифной ступени доли короткая стоянка берёт час",
			minutes: 20,
			tiers: []models.TariffTier{
				{ServiceName: "hour", DurationMinutes: 60, Amount: 90},
			},
			wantItems: []models.LineItem{{ServiceName: "hour", Units: 1, Amount: 90}},
		},
		{
			name:    "совсем без ступеней — ошибка, а не ноль",
			minutes: 20,
			tiers:   nil,
			wantErr: models.ErrTariffNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decompose(tt.minutes, tt.tiers)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantItems, got)
		})
	}
}
