package models

import "time"

// SubscriptionState — расчётное состояние жизненного цикла абонемента.
// Хранимое значение не является источником истины: состояние пересчитывается
// при каждом чтении, из хранилища берётся только признак отмены.
type SubscriptionState string

const (
	// StatePending — есть неоплаченный период либо абонемент просрочен без полной оплаты.
	StatePending SubscriptionState = "pending"
	// StateActive — текущая дата покрыта оплаченным периодом.
	StateActive SubscriptionState = "active"
	// StateFinished — абонемент закончился и все периоды оплачены.
	StateFinished SubscriptionState = "finished"
	// StateCancelled — абонемент отменён; терминальное состояние.
	StateCancelled SubscriptionState = "cancelled"
)

// Subscription представляет абонемент: предоплаченное право занимать
// конкретное место на площадке. EndDate == nil означает бессрочный абонемент.
// При отмене EndDate фиксируется моментом отмены, а Cancelled становится true.
type Subscription struct {
	ID             int        // Идентификатор абонемента
	UID            string     // Внешний UUID абонемента
	SiteID         int        // Площадка
	Spot           int        // Номер места
	Holder         string     // Владелец абонемента
	HolderEmail    string     // Почта владельца для уведомлений
	ServiceID      int        // Абонементная услуга из каталога
	VehicleClassID int        // Класс транспортного средства
	StartDate      time.Time  // Начало действия
	EndDate        *time.Time // Окончание действия (nil — бессрочный)
	Cancelled      bool       // Признак отмены
	PaymentID      *int       // Платёж, которым был оформлен абонемент
}

// Period представляет один расчётный период абонемента. Периоды идут
// подряд без разрывов и пересечений: конец периода n совпадает с началом
// периода n+1, номера Seq плотные и начинаются с 1.
type Period struct {
	SubscriptionID int
	Seq            int        // Порядковый номер периода, с 1
	StartDate      time.Time  // Начало периода
	EndDate        time.Time  // Конец периода
	Amount         float64    // Цена, зафиксированная при генерации
	Paid           bool       // Признак оплаты
	PaidOn         *time.Time // Номинальная дата оплаты (календарный маркер)
	PaymentID      *int       // Ссылка на платёж
}

// SubscribedVehicle связывает абонемент с госномером транспортного средства.
// По этой связи определяется, покрыт ли заехавший автомобиль абонементом
// на его месте.
type SubscribedVehicle struct {
	SubscriptionID int
	Plate          string
}

// SubscriptionInfo — абонемент вместе с периодами, госномерами и состоянием,
// рассчитанным на момент чтения.
type SubscriptionInfo struct {
	Subscription Subscription      `json:"subscription"`
	Periods      []Period          `json:"periods"`
	Plates       []string          `json:"plates"`
	State        SubscriptionState `json:"state"`
}

// DummySubscription используется для приёма данных нового абонемента
// из JSON-запроса до их валидации и генерации периодов.
type DummySubscription struct {
	SiteID         int      `json:"site_id" validate:"required"`          // Площадка
	Spot           int      `json:"spot" validate:"required"`             // Номер места
	Holder         string   `json:"holder" validate:"required"`           // Владелец
	HolderEmail    string   `json:"holder_email" validate:"required,email"` // Почта владельца
	ServiceID      int      `json:"service_id" validate:"required"`       // Абонементная услуга
	VehicleClassID int      `json:"vehicle_class_id" validate:"required"` // Класс ТС
	StartDate      string   `json:"start_date" validate:"required"`       // Дата начала в формате 02-01-2006
	CounterPeriods int      `json:"counter_periods" validate:"required"`  // Количество периодов
	PaidPeriods    int      `json:"paid_periods"`                         // Сколько периодов уже оплачено
	Plates         []string `json:"plates" validate:"required,min=1"`     // Госномера по абонементу
}

// DummyExtend используется для приёма запроса на продление абонемента.
type DummyExtend struct {
	CounterPeriods int `json:"counter_periods" validate:"required"` // Сколько периодов добавить
}
