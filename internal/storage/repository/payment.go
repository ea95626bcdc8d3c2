package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// CreatePayment проводит платёж на площадке: следующий номер (max + 1)
// вычисляется и строка вставляется одним оператором, уникальный индекс
// (site_id, number) не даёт двум одновременным выездам получить один номер.
func (s *Storage) CreatePayment(ctx context.Context, siteID int, amount float64) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	return createPayment(ctx, s.DB, siteID, amount)
}

// queryRower покрывает *sql.DB и *sql.Tx: платёж создаётся и сам по себе,
// и внутри транзакций оформления абонемента или выезда.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func createPayment(ctx context.Context, q queryRower, siteID int, amount float64) (*models.Payment, error) {
	const op = "storage.createPayment"

	query := `INSERT INTO payments (site_id, number, amount)
			  SELECT $1, COALESCE(MAX(number), 0) + 1, $2
			  FROM payments
			  WHERE site_id = $1
			  RETURNING id, site_id, number, amount, created_at`
	var p models.Payment
	if err := q.QueryRowContext(ctx, query, siteID, amount).Scan(
		&p.ID, &p.SiteID, &p.Number, &p.Amount, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ListPayments возвращает платежи площадки с пагинацией.
func (s *Storage) ListPayments(ctx context.Context, siteID, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, site_id, number, amount, created_at
			  FROM payments
			  WHERE site_id = $1
			  ORDER BY number
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.SiteID, &p.Number, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
