package models

import "time"

// Payment представляет платёж, проведённый на площадке. Номера платежей
// выдаются по площадке монотонно (max + 1) и резервируются в одной
// транзакции со вставкой, чтобы два одновременных выезда не получили
// одинаковый номер.
type Payment struct {
	ID        int
	SiteID    int
	Number    int // Номер платежа в пределах площадки
	Amount    float64
	CreatedAt time.Time
}
