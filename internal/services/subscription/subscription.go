// Package services содержит бизнес-логику абонементов: оформление с
// генерацией расчётных периодов, продление, отмену, оплату периодов
// и расчёт состояния.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/lib/daterange"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/substate"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/timeunit"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// SubscriptionRepository определяет методы для работы с абонементами в хранилище.
type SubscriptionRepository interface {
	// ReadService возвращает услугу каталога по её ID.
	ReadService(ctx context.Context, serviceID int) (*models.Service, error)
	// CreateSubscriptionWithPeriods сохраняет абонемент с периодами и номерами атомарно.
	CreateSubscriptionWithPeriods(ctx context.Context, sub models.Subscription,
		periods []models.Period, plates []string) (*models.Subscription, error)
	// ReadSubscriptionByUID возвращает абонемент по внешнему UUID.
	ReadSubscriptionByUID(ctx context.Context, uid string) (*models.Subscription, error)
	// ListPeriods возвращает периоды абонемента по порядку номеров.
	ListPeriods(ctx context.Context, subscriptionID int) ([]models.Period, error)
	// ListSubscribedPlates возвращает госномера, привязанные к абонементу.
	ListSubscribedPlates(ctx context.Context, subscriptionID int) ([]string, error)
	// ListNonCancelledSubscriptions возвращает неотменённые абонементы на месте.
	ListNonCancelledSubscriptions(ctx context.Context, siteID, spot int) ([]*models.Subscription, error)
	// ListSubscriptionsBySite возвращает абонементы площадки с пагинацией.
	ListSubscriptionsBySite(ctx context.Context, siteID, limit, offset int) ([]*models.Subscription, error)
	// AppendPeriods добавляет периоды продления и сдвигает конец абонемента.
	AppendPeriods(ctx context.Context, subscriptionID int, periods []models.Period, newEndDate time.Time) error
	// CancelSubscription отменяет абонемент и возвращает количество изменённых строк.
	CancelSubscription(ctx context.Context, uid string, at time.Time) (int, error)
	// MarkPeriodPaid проводит платёж и отмечает период оплаченным.
	MarkPeriodPaid(ctx context.Context, subscriptionID, seq, siteID int, amount float64, paidOn time.Time) error
}

// TariffProvider выдает действующий тариф на момент запроса.
type TariffProvider interface {
	CurrentTariff(ctx context.Context, siteID, serviceID, vehicleClassID int, asOf time.Time) (*models.Tariff, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// cachedSubscription — то, что лежит в кеше: сырой абонемент и периоды.
// Состояние в кеш не пишется, оно пересчитывается при каждом чтении.
type cachedSubscription struct {
	Subscription models.Subscription `json:"subscription"`
	Periods      []models.Period     `json:"periods"`
	Plates       []string            `json:"plates"`
}

// SubscriptionService реализует бизнес-логику работы с абонементами.
type SubscriptionService struct {
	repo    SubscriptionRepository
	tariffs TariffProvider
	cache   Cache
	log     *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, tariffs TariffProvider,
	cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:    repo,
		tariffs: tariffs,
		cache:   cache,
		log:     log,
	}
}

// Create оформляет новый абонемент: генерирует периоды с зафиксированной
// на момент оформления ценой, проверяет конфликт места и атомарно сохраняет
// весь пакет. Абонемент с началом в будущем принудительно выравнивается
// на календарные дни: начало в полночь, концы периодов в 23:59:59.
func (s *SubscriptionService) Create(ctx context.Context, req models.DummySubscription) (*models.SubscriptionInfo, error) {
	startDate, err := time.Parse("02-01-2006", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	if req.CounterPeriods < 1 {
		return nil, models.ErrInvalidPeriodCount
	}
	if req.PaidPeriods > req.CounterPeriods {
		return nil, models.ErrInvalidPeriodCount
	}

	svc, err := s.repo.ReadService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.Type != models.ServiceTypeSubscription {
		return nil, fmt.Errorf("service %q is not a subscription service", svc.Name)
	}

	now := time.Now().UTC()
	today := timeunit.StartOfDay(now)
	scheduled := startDate.After(today)
	if scheduled {
		startDate = timeunit.StartOfDay(startDate)
	}

	// Цена фиксируется в момент оформления и больше не пересматривается
	tariff, err := s.tariffs.CurrentTariff(ctx, req.SiteID, req.ServiceID, req.VehicleClassID, now)
	if err != nil {
		return nil, err
	}

	periods := generatePeriods(startDate, svc, tariff.Amount, req.CounterPeriods, req.PaidPeriods, scheduled, today)
	endDate := periods[len(periods)-1].EndDate

	if err := s.checkOverlap(ctx, req.SiteID, req.Spot, startDate, &endDate, ""); err != nil {
		return nil, err
	}

	sub := models.Subscription{
		SiteID:         req.SiteID,
		Spot:           req.Spot,
		Holder:         req.Holder,
		HolderEmail:    req.HolderEmail,
		ServiceID:      req.ServiceID,
		VehicleClassID: req.VehicleClassID,
		StartDate:      startDate,
		EndDate:        &endDate,
	}
	created, err := s.repo.CreateSubscriptionWithPeriods(ctx, sub, periods, req.Plates)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new subscription",
		slog.String("uid", created.UID), slog.Int("site_id", created.SiteID), slog.Int("spot", created.Spot))

	cacheKey := fmt.Sprintf("subscription:%s", created.UID)
	entry := cachedSubscription{Subscription: *created, Periods: periods, Plates: req.Plates}
	if err := s.cache.Set(cacheKey, entry, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}

	return &models.SubscriptionInfo{
		Subscription: *created,
		Periods:      periods,
		Plates:       req.Plates,
		State:        substate.Compute(*created, periods, now),
	}, nil
}

// Read возвращает абонемент с периодами и рассчитанным состоянием.
// Сырые данные берутся из кеша или хранилища, состояние пересчитывается
// всегда заново.
func (s *SubscriptionService) Read(ctx context.Context, uid string) (*models.SubscriptionInfo, error) {
	entry, err := s.readRaw(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &models.SubscriptionInfo{
		Subscription: entry.Subscription,
		Periods:      entry.Periods,
		Plates:       entry.Plates,
		State:        substate.Compute(entry.Subscription, entry.Periods, time.Now().UTC()),
	}, nil
}

// Extend продлевает абонемент: добавляет периоды по цене, зафиксированной
// при оформлении, и сдвигает конец. Продление заново проверяет конфликт
// места, исключая сам абонемент.
func (s *SubscriptionService) Extend(ctx context.Context, uid string, counterPeriods int) (*models.SubscriptionInfo, error) {
	if counterPeriods <= 0 {
		return nil, models.ErrInvalidPeriodCount
	}

	sub, err := s.repo.ReadSubscriptionByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if sub.Cancelled {
		return nil, fmt.Errorf("subscription %s is cancelled", uid)
	}

	periods, err := s.repo.ListPeriods(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("subscription %s has no periods", uid)
	}

	svc, err := s.repo.ReadService(ctx, sub.ServiceID)
	if err != nil {
		return nil, err
	}

	last := periods[len(periods)-1]
	cursor := untrim(last.EndDate)
	trimmed := !cursor.Equal(last.EndDate)
	amount := last.Amount

	var added []models.Period
	seq := last.Seq
	for range counterPeriods {
		seq++
		next := advance(cursor, svc)
		end := next
		if trimmed {
			end = timeunit.TrimMidnight(next)
		}
		added = append(added, models.Period{
			Seq:       seq,
			StartDate: cursor,
			EndDate:   end,
			Amount:    amount,
		})
		cursor = next
	}
	newEnd := added[len(added)-1].EndDate

	if err := s.checkOverlap(ctx, sub.SiteID, sub.Spot, sub.StartDate, &newEnd, sub.UID); err != nil {
		return nil, err
	}

	if err := s.repo.AppendPeriods(ctx, sub.ID, added, newEnd); err != nil {
		return nil, err
	}
	s.log.Info("extended subscription", slog.String("uid", uid), slog.Int("added_periods", counterPeriods))

	s.invalidate(uid)
	return s.Read(ctx, uid)
}

// Cancel отменяет абонемент текущим моментом.
func (s *SubscriptionService) Cancel(ctx context.Context, uid string) error {
	rowsAffected, err := s.repo.CancelSubscription(ctx, uid, time.Now().UTC())
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrSubscriptionNotFound
	}
	s.log.Info("cancelled subscription", slog.String("uid", uid))
	s.invalidate(uid)
	return nil
}

// PayPeriod отмечает период оплаченным. Номинальной датой оплаты берётся
// полдень текущего дня: маркер календарного дня, не претендующий на
// точный момент платежа.
func (s *SubscriptionService) PayPeriod(ctx context.Context, uid string, seq int) error {
	sub, err := s.repo.ReadSubscriptionByUID(ctx, uid)
	if err != nil {
		return err
	}
	periods, err := s.repo.ListPeriods(ctx, sub.ID)
	if err != nil {
		return err
	}

	var target *models.Period
	for i := range periods {
		if periods[i].Seq == seq {
			target = &periods[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("subscription %s has no period %d", uid, seq)
	}
	if target.Paid {
		return fmt.Errorf("period %d of subscription %s is already paid", seq, uid)
	}

	paidOn := noonOfToday()
	if err := s.repo.MarkPeriodPaid(ctx, sub.ID, seq, sub.SiteID, target.Amount, paidOn); err != nil {
		return err
	}
	s.log.Info("marked period paid", slog.String("uid", uid), slog.Int("seq", seq))
	s.invalidate(uid)
	return nil
}

// List возвращает абонементы площадки с рассчитанными состояниями.
func (s *SubscriptionService) List(ctx context.Context, siteID, limit, offset int) ([]*models.SubscriptionInfo, error) {
	subs, err := s.repo.ListSubscriptionsBySite(ctx, siteID, limit, offset)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := make([]*models.SubscriptionInfo, 0, len(subs))
	for _, sub := range subs {
		periods, err := s.repo.ListPeriods(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &models.SubscriptionInfo{
			Subscription: *sub,
			Periods:      periods,
			State:        substate.Compute(*sub, periods, now),
		})
	}
	return result, nil
}

// checkOverlap проверяет конфликт места: новый диапазон не должен
// пересекаться по календарным дням ни с одним неотменённым абонементом
// на этом месте, кроме excludeUID.
func (s *SubscriptionService) checkOverlap(ctx context.Context, siteID, spot int,
	start time.Time, end *time.Time, excludeUID string) error {
	existing, err := s.repo.ListNonCancelledSubscriptions(ctx, siteID, spot)
	if err != nil {
		return err
	}

	candidate := daterange.NewRange(start, end)
	for _, other := range existing {
		if other.UID == excludeUID {
			continue
		}
		if daterange.Overlaps(candidate, daterange.NewRange(other.StartDate, other.EndDate)) {
			return &models.OverlapError{
				SubscriptionUID: other.UID,
				Start:           other.StartDate,
				End:             other.EndDate,
			}
		}
	}
	return nil
}

func (s *SubscriptionService) readRaw(ctx context.Context, uid string) (*cachedSubscription, error) {
	var entry *cachedSubscription
	cacheKey := fmt.Sprintf("subscription:%s", uid)
	found, err := s.cache.Get(cacheKey, &entry)
	if err != nil {
		return nil, err
	}
	if found {
		return entry, nil
	}

	sub, err := s.repo.ReadSubscriptionByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	periods, err := s.repo.ListPeriods(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	plates, err := s.repo.ListSubscribedPlates(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	entry = &cachedSubscription{Subscription: *sub, Periods: periods, Plates: plates}
	if err := s.cache.Set(cacheKey, entry, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return entry, nil
}

func (s *SubscriptionService) invalidate(uid string) {
	cacheKey := fmt.Sprintf("subscription:%s", uid)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
}

// generatePeriods строит подряд идущие периоды от startDate. Курсор идёт
// по неусечённым границам, чтобы календарная арифметика не накапливала
// сдвиг; усечение до 23:59:59 применяется только к сохраняемым концам
// отложенных абонементов.
func generatePeriods(startDate time.Time, svc *models.Service, amount float64,
	counterPeriods, paidPeriods int, scheduled bool, today time.Time) []models.Period {
	paidOn := today.Add(12 * time.Hour)

	periods := make([]models.Period, 0, counterPeriods)
	cursor := startDate
	for i := 1; i <= counterPeriods; i++ {
		next := advance(cursor, svc)
		end := next
		if scheduled {
			end = timeunit.TrimMidnight(next)
		}
		p := models.Period{
			Seq:       i,
			StartDate: cursor,
			EndDate:   end,
			Amount:    amount,
		}
		if i <= paidPeriods {
			p.Paid = true
			p.PaidOn = &paidOn
		}
		periods = append(periods, p)
		cursor = next
	}
	return periods
}

// advance прибавляет к cursor одну единицу повторения услуги: календарную
// единицу либо фиксированную длительность в минутах.
func advance(cursor time.Time, svc *models.Service) time.Time {
	if svc.Unit != "" {
		return timeunit.AddPeriod(cursor, svc.Unit, svc.UnitCount)
	}
	if svc.DurationMinutes != nil {
		return timeunit.AddMinutes(cursor, *svc.DurationMinutes, svc.UnitCount)
	}
	return cursor
}

// untrim возвращает усечённый конец периода обратно на полночь следующего
// дня, восстанавливая неусечённый курсор для продления.
func untrim(t time.Time) time.Time {
	if t.Hour() == 23 && t.Minute() == 59 && t.Second() == 59 {
		return t.Add(time.Second)
	}
	return t
}

func noonOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
}
