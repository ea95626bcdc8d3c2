package models

import "time"

// Session представляет разовую парковочную сессию от въезда до выезда.
// EndDate == nil, пока автомобиль стоит на месте; при выезде сессия
// закрывается после успешной тарификации и оплаты.
type Session struct {
	ID             int        // Идентификатор сессии
	UID            string     // Внешний UUID сессии
	SiteID         int        // Площадка
	Spot           int        // Номер места
	Plate          string     // Госномер
	VehicleClassID int        // Класс транспортного средства
	StartDate      time.Time  // Момент въезда
	EndDate        *time.Time // Момент выезда (nil — автомобиль на месте)
	PaymentID      *int       // Платёж, закрывший сессию
}

// ExtraServiceUsage представляет оказанную дополнительную услугу,
// привязанную к госномеру на площадке. Непроведённые услуги (PaymentID == nil)
// добавляются отдельными строками к счёту при выезде независимо от
// абонементного покрытия.
type ExtraServiceUsage struct {
	ID             int
	SiteID         int
	Plate          string
	ServiceID      int
	ServiceName    string
	VehicleClassID int
	FinishedAt     time.Time // Момент завершения услуги
	PaymentID      *int
}

// LineItem — одна строка счёта за сессию: услуга, количество единиц и сумма.
type LineItem struct {
	ServiceName string  `json:"service_name"`
	Units       int     `json:"units"`
	Amount      float64 `json:"amount"`
}

// RateResult — результат тарификации сессии.
type RateResult struct {
	LineItems       []LineItem `json:"line_items"`       // Строки счёта
	Total           float64    `json:"total"`            // Итоговая сумма
	TotalMinutes    int        `json:"total_minutes"`    // Полная длительность сессии
	BillableMinutes int        `json:"billable_minutes"` // Минуты вне абонементного покрытия
	Covered         bool       `json:"covered"`          // Сессия хотя бы частично покрыта абонементом
}

// DummySession используется для приёма данных въезда из JSON-запроса.
type DummySession struct {
	SiteID         int    `json:"site_id" validate:"required"`          // Площадка
	Spot           int    `json:"spot" validate:"required"`             // Номер места
	Plate          string `json:"plate" validate:"required"`            // Госномер
	VehicleClassID int    `json:"vehicle_class_id" validate:"required"` // Класс ТС
}

// DummyCloseSession используется для приёма запроса на выезд.
type DummyCloseSession struct {
	SessionUID string `json:"session_uid" validate:"required,uuid"` // UUID открытой сессии
}

// DummyExtraService используется для приёма данных оказанной дополнительной
// услуги из JSON-запроса.
type DummyExtraService struct {
	SiteID         int    `json:"site_id" validate:"required"`          // Площадка
	Plate          string `json:"plate" validate:"required"`            // Госномер
	ServiceID      int    `json:"service_id" validate:"required"`       // Услуга из каталога
	VehicleClassID int    `json:"vehicle_class_id" validate:"required"` // Класс ТС
}
