// Package substate вычисляет состояние жизненного цикла абонемента
// из его периодов и сегодняшней даты. Функция чистая и вызывается при
// каждом чтении: оплаты могут приходить не по порядку календаря, поэтому
// хранимому состоянию доверять нельзя — кроме признака отмены.
package substate

import (
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// Compute возвращает состояние абонемента на дату today.
// Правила применяются строго по порядку, побеждает первое совпавшее:
//
//  1. отменённый абонемент остаётся отменённым навсегда;
//  2. абонемент закончился: finished при полной оплате, иначе pending;
//  3. today попадает в какой-то период (включительно по дням):
//     active, если период оплачен, иначе pending;
//  4. есть неоплаченный период в прошлом — pending;
//  5. today не позже конца последнего оплаченного периода — active;
//  6. иначе pending.
func Compute(sub models.Subscription, periods []models.Period, today time.Time) models.SubscriptionState {
	if sub.Cancelled {
		return models.StateCancelled
	}

	d := day(today)

	if sub.EndDate != nil && d.After(day(*sub.EndDate)) {
		if allPaid(periods) {
			return models.StateFinished
		}
		return models.StatePending
	}

	for _, p := range periods {
		if !d.Before(day(p.StartDate)) && !d.After(day(p.EndDate)) {
			if p.Paid {
				return models.StateActive
			}
			return models.StatePending
		}
	}

	for _, p := range periods {
		if day(p.EndDate).Before(d) && !p.Paid {
			return models.StatePending
		}
	}

	if last, ok := lastPaidEnd(periods); ok && !d.After(day(last)) {
		return models.StateActive
	}

	return models.StatePending
}

func allPaid(periods []models.Period) bool {
	for _, p := range periods {
		if !p.Paid {
			return false
		}
	}
	return true
}

func lastPaidEnd(periods []models.Period) (time.Time, bool) {
	var last time.Time
	var found bool
	for _, p := range periods {
		if p.Paid && (!found || p.EndDate.After(last)) {
			last = p.EndDate
			found = true
		}
	}
	return last, found
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
