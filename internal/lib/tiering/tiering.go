// Package tiering реализует жадное разложение оплачиваемых минут сессии
// по тарифным ступеням. Ступени на 30 и 60 минут обрабатываются как
// отдельные первоклассные случаи: короткая стоянка намеренно оплачивается
// одной долей или одним часом, а не складывается из крупных блоков.
package tiering

import (
	"sort"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

const (
	fractionMinutes = 30
	hourMinutes     = 60
)

// Decompose раскладывает minutes по ступеням tiers и возвращает строки счёта.
// Порядок: минуты <= 30 — одна доля; минуты <= 60 — один час; иначе крупные
// блоки по убыванию длительности целыми штуками, остаток <= 30 — одна доля,
// прочий остаток — часы с округлением вверх. Если минуты есть, а ни одной
// подходящей ступени нет, возвращается models.ErrTariffNotFound: молча
// посчитать ноль нельзя.
func Decompose(minutes int, tiers []models.TariffTier) ([]models.LineItem, error) {
	if minutes <= 0 {
		return nil, nil
	}

	fraction := findTier(tiers, fractionMinutes)
	hour := findTier(tiers, hourMinutes)

	if minutes <= fractionMinutes && fraction != nil {
		return []models.LineItem{line(*fraction, 1)}, nil
	}
	if minutes <= hourMinutes && hour != nil {
		return []models.LineItem{line(*hour, 1)}, nil
	}

	blocks := largeBlocks(tiers)

	var items []models.LineItem
	remaining := minutes
	for _, b := range blocks {
		n := remaining / b.DurationMinutes
		if n == 0 {
			continue
		}
		items = append(items, line(b, n))
		remaining -= n * b.DurationMinutes
	}

	if remaining > 0 {
		switch {
		case remaining <= fractionMinutes && fraction != nil:
			items = append(items, line(*fraction, 1))
		case hour != nil:
			items = append(items, line(*hour, ceilDiv(remaining, hourMinutes)))
		case fraction != nil:
			items = append(items, line(*fraction, ceilDiv(remaining, fractionMinutes)))
		}
	}

	if len(items) == 0 {
		return nil, models.ErrTariffNotFound
	}
	return items, nil
}

func findTier(tiers []models.TariffTier, duration int) *models.TariffTier {
	for i := range tiers {
		if tiers[i].DurationMinutes == duration {
			return &tiers[i]
		}
	}
	return nil
}

// largeBlocks возвращает ступени длиннее часа по убыванию длительности.
func largeBlocks(tiers []models.TariffTier) []models.TariffTier {
	var blocks []models.TariffTier
	for _, t := range tiers {
		if t.DurationMinutes > hourMinutes {
			blocks = append(blocks, t)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].DurationMinutes > blocks[j].DurationMinutes
	})
	return blocks
}

func line(t models.TariffTier, units int) models.LineItem {
	return models.LineItem{
		ServiceName: t.ServiceName,
		Units:       units,
		Amount:      t.Amount * float64(units),
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
