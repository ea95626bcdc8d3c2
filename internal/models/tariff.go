package models

import "time"

// Tariff представляет цену услуги для тройки (площадка, услуга, класс ТС)
// с окном действия [StartDate, EndDate]. EndDate == nil означает, что тариф
// действует сейчас. На тройку в любой момент может быть открыт не более
// одного тарифа: при смене цены старый тариф закрывается текущим моментом,
// и только после этого вставляется новый.
type Tariff struct {
	ID             int
	SiteID         int
	ServiceID      int
	VehicleClassID int
	Amount         float64
	StartDate      time.Time
	EndDate        *time.Time
}

// TariffTier представляет одну тарифную ступень почасовой парковки:
// блок фиксированной длительности со своей ценой. Используется движком
// тарификации при жадном разложении оплачиваемых минут.
type TariffTier struct {
	ServiceID       int
	ServiceName     string
	DurationMinutes int
	Amount          float64
}

// DummyTariff используется для приёма новой цены из JSON-запроса
// до её валидации и записи в каталог тарифов.
type DummyTariff struct {
	SiteID         int     `json:"site_id" validate:"required"`          // Идентификатор площадки
	ServiceID      int     `json:"service_id" validate:"required"`       // Идентификатор услуги
	VehicleClassID int     `json:"vehicle_class_id" validate:"required"` // Класс транспортного средства
	Amount         float64 `json:"amount" validate:"required,gt=0"`      // Новая цена (>0)
}
