// Package daterange реализует правило пересечения диапазонов дат,
// которым проверяются конфликты абонементов на одном месте. Сравнение
// идёт по календарным дням, а не по моментам: разное время суток в один
// и тот же день не должно прятать конфликт.
package daterange

import "time"

// Range — диапазон дат с опционально открытым концом. Открытый конец
// (End == nil) пересекается со всем, что начинается не раньше Start.
type Range struct {
	Start time.Time
	End   *time.Time
}

// NewRange собирает Range из начала и опционального конца.
func NewRange(start time.Time, end *time.Time) Range {
	return Range{Start: start, End: end}
}

// Overlaps сообщает, пересекаются ли два диапазона. Диапазоны не
// пересекаются только если конец одного по календарному дню раньше
// начала другого.
func Overlaps(a, b Range) bool {
	if a.End != nil && day(*a.End).Before(day(b.Start)) {
		return false
	}
	if b.End != nil && day(*b.End).Before(day(a.Start)) {
		return false
	}
	return true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
