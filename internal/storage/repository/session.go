package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// CreateSession открывает парковочную сессию на момент въезда.
func (s *Storage) CreateSession(ctx context.Context, session models.Session) (*models.Session, error) {
	const op = "storage.CreateSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO sessions (site_id, spot, plate, vehicle_class_id, start_date)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, uid`
	if err := s.DB.QueryRowContext(ctx, query,
		session.SiteID, session.Spot, session.Plate, session.VehicleClassID,
		session.StartDate).Scan(&session.ID, &session.UID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// FindOpenSessionByUID возвращает незакрытую сессию по её внешнему UUID.
func (s *Storage) FindOpenSessionByUID(ctx context.Context, uid string) (*models.Session, error) {
	const op = "storage.FindOpenSessionByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, site_id, spot, plate, vehicle_class_id, start_date
			  FROM sessions
			  WHERE uid = $1 AND end_date IS NULL`
	var session models.Session
	row := s.DB.QueryRowContext(ctx, query, uid)
	if err := row.Scan(&session.ID, &session.UID, &session.SiteID, &session.Spot,
		&session.Plate, &session.VehicleClassID, &session.StartDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// CloseSession закрывает сессию на момент выезда одной транзакцией:
// при ненулевой сумме проводит платёж, привязывает его к сессии и к
// включённым в счёт дополнительным услугам. Полностью покрытый абонементом
// выезд закрывается без платежа.
func (s *Storage) CloseSession(ctx context.Context, sessionID int, endDate time.Time,
	siteID int, total float64, extraUsageIDs []int) (*models.Payment, error) {
	const op = "storage.CloseSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var payment *models.Payment
	var paymentID *int
	if total > 0 {
		payment, err = createPayment(ctx, tx, siteID, total)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		paymentID = &payment.ID
	}

	closeQuery := `UPDATE sessions
				   SET end_date = $1, payment_id = $2
				   WHERE id = $3 AND end_date IS NULL`
	result, err := tx.ExecContext(ctx, closeQuery, endDate, paymentID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrSessionNotFound)
	}

	if paymentID != nil {
		extraQuery := `UPDATE extra_service_usages SET payment_id = $1 WHERE id = $2`
		for _, usageID := range extraUsageIDs {
			if _, err = tx.ExecContext(ctx, extraQuery, *paymentID, usageID); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payment, nil
}

// CreateExtraServiceUsage регистрирует оказание дополнительной услуги
// по госномеру на площадке.
func (s *Storage) CreateExtraServiceUsage(ctx context.Context, usage models.ExtraServiceUsage) (int, error) {
	const op = "storage.CreateExtraServiceUsage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO extra_service_usages (site_id, plate, service_id, vehicle_class_id, finished_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int
	if err := s.DB.QueryRowContext(ctx, query,
		usage.SiteID, usage.Plate, usage.ServiceID, usage.VehicleClassID, usage.FinishedAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListUnbilledExtraServices возвращает завершённые и ещё не выставленные
// в счёт дополнительные услуги по госномеру на площадке.
func (s *Storage) ListUnbilledExtraServices(ctx context.Context, siteID int, plate string) ([]models.ExtraServiceUsage, error) {
	const op = "storage.ListUnbilledExtraServices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.site_id, u.plate, u.service_id, sv.name, u.vehicle_class_id, u.finished_at
			  FROM extra_service_usages u
			  JOIN services sv ON sv.id = u.service_id
			  WHERE u.site_id = $1 AND u.plate = $2
			    AND u.payment_id IS NULL
			  ORDER BY u.id`
	rows, err := s.DB.QueryContext(ctx, query, siteID, plate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ExtraServiceUsage
	for rows.Next() {
		var usage models.ExtraServiceUsage
		if err := rows.Scan(&usage.ID, &usage.SiteID, &usage.Plate,
			&usage.ServiceID, &usage.ServiceName, &usage.VehicleClassID, &usage.FinishedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, usage)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
