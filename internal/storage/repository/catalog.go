package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// ReadSite возвращает площадку по её ID.
func (s *Storage) ReadSite(ctx context.Context, siteID int) (*models.Site, error) {
	const op = "storage.ReadSite"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, grace_day_enabled FROM sites WHERE id = $1`
	var site models.Site
	row := s.DB.QueryRowContext(ctx, query, siteID)
	if err := row.Scan(&site.ID, &site.Name, &site.GraceDayEnabled); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &site, nil
}

// ReadService возвращает услугу из каталога по её ID.
func (s *Storage) ReadService(ctx context.Context, serviceID int) (*models.Service, error) {
	const op = "storage.ReadService"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, service_type, unit, unit_count, duration_minutes
			  FROM services WHERE id = $1`
	var svc models.Service
	var unit sql.NullString
	var duration sql.NullInt64
	row := s.DB.QueryRowContext(ctx, query, serviceID)
	if err := row.Scan(&svc.ID, &svc.Name, &svc.Type, &unit, &svc.UnitCount, &duration); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if unit.Valid {
		svc.Unit = unit.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		svc.DurationMinutes = &d
	}
	return &svc, nil
}
