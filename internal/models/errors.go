package models

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки бизнес-предусловий. Все они показываются пользователю на границе
// контроллера и не ретраятся: это не временные сбои, а нарушение данных
// или бизнес-правил.
var (
	// ErrTariffNotFound — для тройки (площадка, услуга, класс ТС) нет
	// действующего тарифа. Тарификация и генерация периодов обязаны
	// завершиться этой ошибкой, а не посчитать ноль.
	ErrTariffNotFound = errors.New("tariff not found")
	// ErrSubscriptionNotFound — абонемент не найден в хранилище.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrSessionNotFound — парковочная сессия не найдена либо уже закрыта.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidPeriodCount — запрошено меньше одного периода.
	ErrInvalidPeriodCount = errors.New("period count must be at least 1")
)

// OverlapError возвращается, когда диапазон дат нового абонемента или
// продления пересекается с другим неотменённым абонементом на том же месте.
// Несёт конфликтующий диапазон, чтобы контроллер мог показать его пользователю.
type OverlapError struct {
	SubscriptionUID string     // UID конфликтующего абонемента
	Start           time.Time  // Начало конфликтующего диапазона
	End             *time.Time // Конец конфликтующего диапазона (nil — бессрочный)
}

func (e *OverlapError) Error() string {
	if e.End == nil {
		return fmt.Sprintf("spot is already taken by subscription %s from %s",
			e.SubscriptionUID, e.Start.Format("02-01-2006"))
	}
	return fmt.Sprintf("spot is already taken by subscription %s from %s to %s",
		e.SubscriptionUID, e.Start.Format("02-01-2006"), e.End.Format("02-01-2006"))
}
