package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// FindTariff возвращает действующий на момент asOf тариф для тройки
// (площадка, услуга, класс ТС): среди тарифов с start_date <= asOf и
// открытым либо покрывающим asOf окном берётся самый поздний по началу.
// Отсутствие тарифа — ошибка models.ErrTariffNotFound, а не нулевая цена.
func (s *Storage) FindTariff(ctx context.Context, siteID, serviceID, vehicleClassID int, asOf time.Time) (*models.Tariff, error) {
	const op = "storage.FindTariff"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, site_id, service_id, vehicle_class_id, amount, start_date, end_date
			  FROM tariffs
			  WHERE site_id = $1
			    AND service_id = $2
			    AND vehicle_class_id = $3
			    AND start_date <= $4
			    AND (end_date IS NULL OR end_date >= $4)
			  ORDER BY start_date DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, siteID, serviceID, vehicleClassID, asOf)

	var result models.Tariff
	var endDate sql.NullTime
	if err := row.Scan(&result.ID, &result.SiteID, &result.ServiceID, &result.VehicleClassID,
		&result.Amount, &result.StartDate, &endDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrTariffNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if endDate.Valid {
		result.EndDate = &endDate.Time
	}
	return &result, nil
}

// FindTariffTiers возвращает тарифные ступени почасовой парковки для
// площадки и класса ТС на момент asOf: услуги типа parking с фиксированной
// длительностью и действующим тарифом.
func (s *Storage) FindTariffTiers(ctx context.Context, siteID, vehicleClassID int, asOf time.Time) ([]models.TariffTier, error) {
	const op = "storage.FindTariffTiers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT DISTINCT ON (t.service_id)
			      t.service_id, sv.name, sv.duration_minutes, t.amount
			  FROM tariffs t
			  JOIN services sv ON sv.id = t.service_id
			  WHERE t.site_id = $1
			    AND t.vehicle_class_id = $2
			    AND sv.service_type = 'parking'
			    AND sv.duration_minutes IS NOT NULL
			    AND t.start_date <= $3
			    AND (t.end_date IS NULL OR t.end_date >= $3)
			  ORDER BY t.service_id, t.start_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, siteID, vehicleClassID, asOf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.TariffTier
	for rows.Next() {
		var tier models.TariffTier
		if err := rows.Scan(&tier.ServiceID, &tier.ServiceName, &tier.DurationMinutes, &tier.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, tier)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTariff меняет цену тройки: закрывает открытый тариф моментом now
// и вставляет новый одной транзакцией, сохраняя инвариант "не более
// одного открытого тарифа на тройку".
func (s *Storage) UpdateTariff(ctx context.Context, req models.DummyTariff, now time.Time) (int, error) {
	const op = "storage.UpdateTariff"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	closeQuery := `UPDATE tariffs
				   SET end_date = $1
				   WHERE site_id = $2 AND service_id = $3 AND vehicle_class_id = $4
				     AND end_date IS NULL`
	if _, err = tx.ExecContext(ctx, closeQuery, now, req.SiteID, req.ServiceID, req.VehicleClassID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	insertQuery := `INSERT INTO tariffs (site_id, service_id, vehicle_class_id, amount, start_date)
					VALUES ($1, $2, $3, $4, $5)
					RETURNING id`
	var newID int
	if err = tx.QueryRowContext(ctx, insertQuery,
		req.SiteID, req.ServiceID, req.VehicleClassID, req.Amount, now).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
