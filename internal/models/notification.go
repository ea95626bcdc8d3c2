package models

import "time"

// ExpiryNotice — сообщение очереди уведомлений: оплаченное покрытие
// абонемента заканчивается завтра.
type ExpiryNotice struct {
	SubscriptionUID string    `json:"subscription_uid"`
	Holder          string    `json:"holder"`
	Email           string    `json:"email"`
	SiteID          int       `json:"site_id"`
	Spot            int       `json:"spot"`
	EndDate         time.Time `json:"end_date"`
}
