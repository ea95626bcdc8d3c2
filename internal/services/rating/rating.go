// Package services содержит движок тарификации разовых парковочных сессий:
// расчёт оплачиваемых минут с учётом абонементного покрытия, жадное
// разложение по тарифным ступеням и закрытие сессии с платежом.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/lib/substate"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/tiering"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// SessionRepository определяет методы хранилища, нужные движку тарификации.
type SessionRepository interface {
	// ReadSite возвращает площадку по её ID.
	ReadSite(ctx context.Context, siteID int) (*models.Site, error)
	// CreateSession открывает парковочную сессию.
	CreateSession(ctx context.Context, session models.Session) (*models.Session, error)
	// FindOpenSessionByUID возвращает незакрытую сессию по UUID.
	FindOpenSessionByUID(ctx context.Context, uid string) (*models.Session, error)
	// CloseSession закрывает сессию, проводя платёж при ненулевой сумме.
	CloseSession(ctx context.Context, sessionID int, endDate time.Time,
		siteID int, total float64, extraUsageIDs []int) (*models.Payment, error)
	// CreateExtraServiceUsage регистрирует оказанную дополнительную услугу.
	CreateExtraServiceUsage(ctx context.Context, usage models.ExtraServiceUsage) (int, error)
	// ListUnbilledExtraServices возвращает невыставленные услуги по госномеру.
	ListUnbilledExtraServices(ctx context.Context, siteID int, plate string) ([]models.ExtraServiceUsage, error)
	// ListNonCancelledSubscriptions возвращает неотменённые абонементы на месте.
	ListNonCancelledSubscriptions(ctx context.Context, siteID, spot int) ([]*models.Subscription, error)
	// ListSubscribedPlates возвращает госномера, привязанные к абонементу.
	ListSubscribedPlates(ctx context.Context, subscriptionID int) ([]string, error)
	// ListPeriods возвращает периоды абонемента.
	ListPeriods(ctx context.Context, subscriptionID int) ([]models.Period, error)
}

// TariffProvider выдает действующие тарифы на момент выезда.
type TariffProvider interface {
	CurrentTariff(ctx context.Context, siteID, serviceID, vehicleClassID int, asOf time.Time) (*models.Tariff, error)
	CurrentTiers(ctx context.Context, siteID, vehicleClassID int, asOf time.Time) ([]models.TariffTier, error)
}

// RatingService реализует тарификацию сессий.
type RatingService struct {
	repo    SessionRepository
	tariffs TariffProvider
	log     *slog.Logger
}

// NewRatingService создает новый экземпляр RatingService.
func NewRatingService(repo SessionRepository, tariffs TariffProvider, log *slog.Logger) *RatingService {
	return &RatingService{
		repo:    repo,
		tariffs: tariffs,
		log:     log,
	}
}

// OpenSession открывает парковочную сессию на текущий момент.
func (s *RatingService) OpenSession(ctx context.Context, req models.DummySession) (*models.Session, error) {
	session := models.Session{
		SiteID:         req.SiteID,
		Spot:           req.Spot,
		Plate:          req.Plate,
		VehicleClassID: req.VehicleClassID,
		StartDate:      time.Now().UTC(),
	}
	created, err := s.repo.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}
	s.log.Info("opened parking session",
		slog.String("uid", created.UID), slog.Int("site_id", created.SiteID), slog.String("plate", created.Plate))
	return created, nil
}

// RegisterExtraService регистрирует оказанную дополнительную услугу.
// В счёт она попадёт при ближайшем выезде этого госномера.
func (s *RatingService) RegisterExtraService(ctx context.Context, usage models.ExtraServiceUsage) (int, error) {
	if usage.FinishedAt.IsZero() {
		usage.FinishedAt = time.Now().UTC()
	}
	return s.repo.CreateExtraServiceUsage(ctx, usage)
}

// CloseSession тарифицирует открытую сессию на текущий момент и закрывает
// её. При ненулевой сумме проводится платёж, к которому привязываются
// и сессия, и включённые в счёт дополнительные услуги.
func (s *RatingService) CloseSession(ctx context.Context, uid string) (*models.RateResult, *models.Payment, error) {
	session, err := s.repo.FindOpenSessionByUID(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	egress := time.Now().UTC()
	result, extraIDs, err := s.Rate(ctx, session, egress)
	if err != nil {
		return nil, nil, err
	}

	payment, err := s.repo.CloseSession(ctx, session.ID, egress, session.SiteID, result.Total, extraIDs)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("closed parking session",
		slog.String("uid", uid),
		slog.Int("billable_minutes", result.BillableMinutes),
		slog.Float64("total", result.Total))
	return result, payment, nil
}

// Rate рассчитывает счёт сессии на момент egress, ничего не записывая.
// Возвращает результат тарификации и ID дополнительных услуг, вошедших
// в счёт.
func (s *RatingService) Rate(ctx context.Context, session *models.Session, egress time.Time) (*models.RateResult, []int, error) {
	totalMinutes := ceilMinutes(egress.Sub(session.StartDate))

	covered, coverageEnd, err := s.findCoverage(ctx, session, egress)
	if err != nil {
		return nil, nil, err
	}

	billableMinutes := totalMinutes
	if covered {
		if coverageEnd == nil || !coverageEnd.Before(egress) {
			billableMinutes = 0
		} else {
			billableFrom := session.StartDate
			if coverageEnd.After(billableFrom) {
				billableFrom = *coverageEnd
			}
			billableMinutes = ceilMinutes(egress.Sub(billableFrom))
		}
	}

	var items []models.LineItem
	if billableMinutes > 0 {
		tiers, err := s.tariffs.CurrentTiers(ctx, session.SiteID, session.VehicleClassID, egress)
		if err != nil {
			return nil, nil, err
		}
		items, err = tiering.Decompose(billableMinutes, tiers)
		if err != nil {
			return nil, nil, err
		}
	}

	// Завершённые дополнительные услуги выставляются независимо от покрытия
	extras, err := s.repo.ListUnbilledExtraServices(ctx, session.SiteID, session.Plate)
	if err != nil {
		return nil, nil, err
	}
	var extraIDs []int
	for _, extra := range extras {
		tariff, err := s.tariffs.CurrentTariff(ctx, extra.SiteID, extra.ServiceID, extra.VehicleClassID, egress)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, models.LineItem{
			ServiceName: extra.ServiceName,
			Units:       1,
			Amount:      tariff.Amount,
		})
		extraIDs = append(extraIDs, extra.ID)
	}

	var total float64
	for _, item := range items {
		total += item.Amount
	}

	return &models.RateResult{
		LineItems:       items,
		Total:           total,
		TotalMinutes:    totalMinutes,
		BillableMinutes: billableMinutes,
		Covered:         covered,
	}, extraIDs, nil
}

// findCoverage ищет абонемент, покрывающий сессию: неотменённый абонемент
// на том же месте, к которому привязан госномер и который был активен
// в своём окне действия. Возвращает конец покрытия; nil означает покрытие
// без ограничения. Льготный день площадки продлевает покрытие на сутки.
func (s *RatingService) findCoverage(ctx context.Context, session *models.Session, egress time.Time) (bool, *time.Time, error) {
	subs, err := s.repo.ListNonCancelledSubscriptions(ctx, session.SiteID, session.Spot)
	if err != nil {
		return false, nil, err
	}
	if len(subs) == 0 {
		return false, nil, nil
	}

	site, err := s.repo.ReadSite(ctx, session.SiteID)
	if err != nil {
		return false, nil, err
	}

	for _, sub := range subs {
		plates, err := s.repo.ListSubscribedPlates(ctx, sub.ID)
		if err != nil {
			return false, nil, err
		}
		if !containsPlate(plates, session.Plate) {
			continue
		}

		periods, err := s.repo.ListPeriods(ctx, sub.ID)
		if err != nil {
			return false, nil, err
		}
		// Состояние оценивается внутри окна действия абонемента: выезд
		// после конца абонемента не отменяет уже накрытые минуты.
		asOf := egress
		if sub.EndDate != nil && egress.After(*sub.EndDate) {
			asOf = *sub.EndDate
		}
		if substate.Compute(*sub, periods, asOf) != models.StateActive {
			continue
		}

		if sub.EndDate == nil {
			return true, nil, nil
		}
		coverageEnd := *sub.EndDate
		if site.GraceDayEnabled {
			coverageEnd = coverageEnd.AddDate(0, 0, 1)
		}
		if !coverageEnd.After(session.StartDate) {
			continue
		}
		return true, &coverageEnd, nil
	}
	return false, nil, nil
}

func containsPlate(plates []string, plate string) bool {
	for _, p := range plates {
		if p == plate {
			return true
		}
	}
	return false
}

// ceilMinutes переводит длительность в целые минуты с округлением вверх:
// начатая минута оплачивается целиком.
func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	minutes := int(d / time.Minute)
	if d%time.Minute > 0 {
		minutes++
	}
	return minutes
}
