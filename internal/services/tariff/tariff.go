// Package services содержит бизнес-логику каталога тарифов и их кеширование.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// TariffRepository определяет методы для работы с тарифами в хранилище.
type TariffRepository interface {
	// FindTariff возвращает тариф тройки (площадка, услуга, класс ТС) на момент asOf.
	FindTariff(ctx context.Context, siteID, serviceID, vehicleClassID int, asOf time.Time) (*models.Tariff, error)
	// FindTariffTiers возвращает тарифные ступени почасовой парковки на момент asOf.
	FindTariffTiers(ctx context.Context, siteID, vehicleClassID int, asOf time.Time) ([]models.TariffTier, error)
	// UpdateTariff закрывает действующий тариф и вставляет новый.
	UpdateTariff(ctx context.Context, req models.DummyTariff, now time.Time) (int, error)
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

// TariffService отвечает за выбор действующего тарифа и смену цен.
// Тарифы меняются редко, а читаются на каждом выезде, поэтому выбор
// кешируется по тройке и календарному дню запроса.
type TariffService struct {
	repo  TariffRepository
	cache Cache
	log   *slog.Logger
}

// NewTariffService создает новый экземпляр TariffService.
func NewTariffService(repo TariffRepository, cache Cache, log *slog.Logger) *TariffService {
	return &TariffService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// CurrentTariff возвращает тариф тройки на момент asOf, используя кеш
// или репозиторий. Отсутствие тарифа — ошибка, а не нулевая цена.
func (s *TariffService) CurrentTariff(ctx context.Context, siteID, serviceID, vehicleClassID int, asOf time.Time) (*models.Tariff, error) {
	var result *models.Tariff
	cacheKey := fmt.Sprintf("tariff:%d:%d:%d:%s", siteID, serviceID, vehicleClassID, asOf.Format("2006-01-02"))
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}

	result, err = s.repo.FindTariff(ctx, siteID, serviceID, vehicleClassID, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache tariff", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// CurrentTiers возвращает тарифные ступени почасовой парковки для площадки
// и класса ТС на момент asOf.
func (s *TariffService) CurrentTiers(ctx context.Context, siteID, vehicleClassID int, asOf time.Time) ([]models.TariffTier, error) {
	var result []models.TariffTier
	cacheKey := fmt.Sprintf("tiers:%d:%d:%s", siteID, vehicleClassID, asOf.Format("2006-01-02"))
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}

	result, err = s.repo.FindTariffTiers(ctx, siteID, vehicleClassID, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache tariff tiers", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Update меняет цену тройки и инвалидирует кеш. Оформленные ранее абонементы
// смену цены не замечают: их периоды хранят сумму, зафиксированную при
// генерации.
func (s *TariffService) Update(ctx context.Context, req models.DummyTariff) (int, error) {
	now := time.Now().UTC()
	id, err := s.repo.UpdateTariff(ctx, req, now)
	if err != nil {
		return 0, err
	}
	s.log.Info("updated tariff", slog.Int("id", id), slog.Int("site_id", req.SiteID))

	cacheKey := fmt.Sprintf("tariff:%d:%d:%d:%s", req.SiteID, req.ServiceID, req.VehicleClassID, now.Format("2006-01-02"))
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate tariff cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	tiersKey := fmt.Sprintf("tiers:%d:%d:%s", req.SiteID, req.VehicleClassID, now.Format("2006-01-02"))
	if err := s.cache.Invalidate(tiersKey); err != nil {
		s.log.Warn("failed to invalidate tiers cache", slog.String("key", tiersKey), slog.Any("err", err))
	}
	return id, nil
}
