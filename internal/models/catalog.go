// Package models содержит доменные структуры парковочного бизнеса:
// справочники (площадки, классы транспорта, услуги), тарифы, разовые
// парковочные сессии, абонементы с их периодами оплаты и платежи.
// Здесь же определены вспомогательные типы для приёма данных из
// JSON-запросов (Dummy*) и общая таксономия ошибок бизнес-логики.
package models

// ServiceType определяет вид услуги в каталоге.
type ServiceType string

const (
	// ServiceTypeParking — почасовая/поминутная парковка (тарифные ступени).
	ServiceTypeParking ServiceType = "parking"
	// ServiceTypeExtra — разовая дополнительная услуга (мойка, шиномонтаж и пр.).
	ServiceTypeExtra ServiceType = "extra"
	// ServiceTypeSubscription — абонементная услуга с повторяющимися периодами.
	ServiceTypeSubscription ServiceType = "subscription"
)

// Единицы повторения абонементной услуги.
const (
	UnitDay   = "day"
	UnitWeek  = "week"
	UnitMonth = "month"
)

// Service представляет услугу из каталога площадки.
// Для абонементных услуг заполняются Unit и UnitCount (единица повторения
// и её кратность). Если задано DurationMinutes, услуга считается блоком
// фиксированной длительности в минутах, а не календарной единицей.
type Service struct {
	ID              int         // Идентификатор услуги
	Name            string      // Название услуги
	Type            ServiceType // Вид услуги
	Unit            string      // Единица повторения: day, week или month
	UnitCount       int         // Кратность единицы повторения
	DurationMinutes *int        // Фиксированная длительность в минутах (nil, если не задана)
}

// VehicleClass представляет класс транспортного средства (легковой, мото и т.д.).
type VehicleClass struct {
	ID   int
	Name string
}

// Site представляет парковочную площадку.
// Флаг GraceDayEnabled включает льготный день после окончания абонемента:
// первые сутки после окончания покрытия не тарифицируются.
type Site struct {
	ID              int
	Name            string
	GraceDayEnabled bool
}
