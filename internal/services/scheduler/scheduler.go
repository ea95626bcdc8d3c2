// Package services содержит планировщик уведомлений: поиск абонементов,
// оплаченное покрытие которых заканчивается завтра, и публикацию
// уведомлений в очередь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
	"github.com/streadway/amqp"
)

// SubscriptionRepository определяет выборку абонементов для планировщика.
type SubscriptionRepository interface {
	FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.Subscription, error)
}

// SchedulerService периодически публикует уведомления об истекающих абонементах.
type SchedulerService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		log:  log,
	}
}

// FindExpiringSubscriptionsDueTomorrow запускает цикл планировщика:
// первый проход сразу, затем каждые 12 часов.
func (s *SchedulerService) FindExpiringSubscriptionsDueTomorrow(ctx context.Context, channel *amqp.Channel) {
	s.runFindExpiringSubscriptionsDueTomorrow(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.runFindExpiringSubscriptionsDueTomorrow(ctx, channel)
	}
}

func (s *SchedulerService) runFindExpiringSubscriptionsDueTomorrow(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find expiring subscriptions due tomorrow")
	subs, err := s.repo.FindSubscriptionsExpiringTomorrow(ctx)
	if err != nil {
		s.log.Error("failed to find subscriptions", sl.Err(err))
		return
	}
	if len(subs) == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("found expiring subscriptions", "count", len(subs))
	for _, sub := range subs {
		notice := models.ExpiryNotice{
			SubscriptionUID: sub.UID,
			Holder:          sub.Holder,
			Email:           sub.HolderEmail,
			SiteID:          sub.SiteID,
			Spot:            sub.Spot,
		}
		if sub.EndDate != nil {
			notice.EndDate = *sub.EndDate
		}
		err = rabbitmq.PublishMessage(channel, "notifications", "expiring", notice)
		if err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
