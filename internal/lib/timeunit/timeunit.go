// Package timeunit содержит календарную арифметику расчётных периодов:
// прибавление единицы повторения (день, неделя, месяц) или буквальных
// минут к моменту начала с сохранением времени суток, а также поправку
// для отложенных абонементов, начинающихся в будущем.
package timeunit

import "time"

// Единицы повторения, совпадающие со значениями поля services.unit.
const (
	UnitDay   = "day"
	UnitWeek  = "week"
	UnitMonth = "month"
)

// AddPeriod прибавляет count единиц повторения к start, сохраняя время
// суток: день — одни календарные сутки, неделя — семь, месяц — календарный
// месяц. Неизвестная единица возвращает start без изменений.
func AddPeriod(start time.Time, unit string, count int) time.Time {
	switch unit {
	case UnitDay:
		return start.AddDate(0, 0, count)
	case UnitWeek:
		return start.AddDate(0, 0, 7*count)
	case UnitMonth:
		return start.AddDate(0, count, 0)
	default:
		return start
	}
}

// AddMinutes прибавляет minutes*count минут к start. Используется для услуг
// с фиксированной длительностью вместо календарной единицы.
func AddMinutes(start time.Time, minutes, count int) time.Time {
	return start.Add(time.Duration(minutes*count) * time.Minute)
}

// StartOfDay возвращает полночь календарного дня t. Для абонемента,
// начинающегося в будущем, время начала принудительно сбрасывается
// на начало дня.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TrimMidnight сдвигает момент, попавший ровно на полночь, на секунду назад:
// период заканчивается в 23:59:59 предыдущего дня, а не в 00:00:00
// следующего. Без поправки "один день с завтрашнего числа" молча
// превращается в двухдневное окно.
func TrimMidnight(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(-time.Second)
	}
	return t
}
