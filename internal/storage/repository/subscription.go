package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// CreateSubscriptionWithPeriods оформляет абонемент одной транзакцией:
// вставляет абонемент, все его периоды и привязанные госномера. Если часть
// периодов уже оплачена, в той же транзакции проводится платёж на их сумму
// и проставляется в оплаченные периоды. Частичных коммитов не бывает:
// либо записывается весь пакет, либо ничего.
func (s *Storage) CreateSubscriptionWithPeriods(ctx context.Context, sub models.Subscription,
	periods []models.Period, plates []string) (*models.Subscription, error) {
	const op = "storage.CreateSubscriptionWithPeriods"
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

	var paidAmount float64
	for _, p := range periods {
		if p.Paid {
			paidAmount += p.Amount
		}
	}

	var payment *models.Payment
	if paidAmount > 0 {
		payment, err = createPayment(ctx, tx, sub.SiteID, paidAmount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sub.PaymentID = &payment.ID
	}

	subQuery := `INSERT INTO subscriptions (site_id, spot, holder, holder_email, service_id,
				     vehicle_class_id, start_date, end_date, cancelled, payment_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)
				 RETURNING id, uid`
	if err = tx.QueryRowContext(ctx, subQuery,
		sub.SiteID, sub.Spot, sub.Holder, sub.HolderEmail, sub.ServiceID, sub.VehicleClassID,
		sub.StartDate, sub.EndDate, sub.PaymentID).Scan(&sub.ID, &sub.UID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	periodQuery := `INSERT INTO periods (subscription_id, seq, start_date, end_date, amount,
					    paid, paid_on, payment_id)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, p := range periods {
		var paymentID *int
		if p.Paid && payment != nil {
			paymentID = &payment.ID
		}
		if _, err = tx.ExecContext(ctx, periodQuery,
			sub.ID, p.Seq, p.StartDate, p.EndDate, p.Amount, p.Paid, p.PaidOn, paymentID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	plateQuery := `INSERT INTO subscribed_vehicles (subscription_id, plate) VALUES ($1, $2)`
	for _, plate := range plates {
		if _, err = tx.ExecContext(ctx, plateQuery, sub.ID, plate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ReadSubscriptionByUID возвращает абонемент по его внешнему UUID.
func (s *Storage) ReadSubscriptionByUID(ctx context.Context, uid string) (*models.Subscription, error) {
	const op = "storage.ReadSubscriptionByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, site_id, spot, holder, holder_email, service_id, vehicle_class_id,
			      start_date, end_date, cancelled, payment_id
			  FROM subscriptions
			  WHERE uid = $1`
	row := s.DB.QueryRowContext(ctx, query, uid)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListNonCancelledSubscriptions возвращает все неотменённые абонементы
// на месте (площадка, место) — вход проверки пересечений.
func (s *Storage) ListNonCancelledSubscriptions(ctx context.Context, siteID, spot int) ([]*models.Subscription, error) {
	const op = "storage.ListNonCancelledSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, site_id, spot, holder, holder_email, service_id, vehicle_class_id,
			      start_date, end_date, cancelled, payment_id
			  FROM subscriptions
			  WHERE site_id = $1 AND spot = $2 AND cancelled = false
			  ORDER BY start_date`
	rows, err := s.DB.QueryContext(ctx, query, siteID, spot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListSubscriptionsBySite возвращает абонементы площадки с пагинацией.
func (s *Storage) ListSubscriptionsBySite(ctx context.Context, siteID, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsBySite"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, site_id, spot, holder, holder_email, service_id, vehicle_class_id,
			      start_date, end_date, cancelled, payment_id
			  FROM subscriptions
			  WHERE site_id = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPeriods возвращает периоды абонемента по порядку номеров.
func (s *Storage) ListPeriods(ctx context.Context, subscriptionID int) ([]models.Period, error) {
	const op = "storage.ListPeriods"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT subscription_id, seq, start_date, end_date, amount, paid, paid_on, payment_id
			  FROM periods
			  WHERE subscription_id = $1
			  ORDER BY seq`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Period
	for rows.Next() {
		var p models.Period
		var paidOn sql.NullTime
		var paymentID sql.NullInt64
		if err := rows.Scan(&p.SubscriptionID, &p.Seq, &p.StartDate, &p.EndDate,
			&p.Amount, &p.Paid, &paidOn, &paymentID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if paidOn.Valid {
			p.PaidOn = &paidOn.Time
		}
		if paymentID.Valid {
			id := int(paymentID.Int64)
			p.PaymentID = &id
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListSubscribedPlates возвращает госномера, привязанные к абонементу.
func (s *Storage) ListSubscribedPlates(ctx context.Context, subscriptionID int) ([]string, error) {
	const op = "storage.ListSubscribedPlates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT plate FROM subscribed_vehicles WHERE subscription_id = $1`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var plate string
		if err := rows.Scan(&plate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, plate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AppendPeriods добавляет периоды продления и сдвигает конец абонемента
// одной транзакцией.
func (s *Storage) AppendPeriods(ctx context.Context, subscriptionID int, periods []models.Period, newEndDate time.Time) error {
	const op = "storage.AppendPeriods"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	periodQuery := `INSERT INTO periods (subscription_id, seq, start_date, end_date, amount, paid)
					VALUES ($1, $2, $3, $4, $5, false)`
	for _, p := range periods {
		if _, err = tx.ExecContext(ctx, periodQuery,
			subscriptionID, p.Seq, p.StartDate, p.EndDate, p.Amount); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	updateQuery := `UPDATE subscriptions SET end_date = $1 WHERE id = $2`
	if _, err = tx.ExecContext(ctx, updateQuery, newEndDate, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CancelSubscription отменяет абонемент: фиксирует конец моментом отмены
// и выставляет терминальный признак. Возвращает количество изменённых строк.
func (s *Storage) CancelSubscription(ctx context.Context, uid string, at time.Time) (int, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET cancelled = true, end_date = $1
			  WHERE uid = $2 AND cancelled = false`
	result, err := s.DB.ExecContext(ctx, query, at, uid)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// MarkPeriodPaid отмечает период оплаченным: проводит платёж на площадке
// и проставляет его в период одной транзакцией. PaidOn — номинальная
// календарная дата оплаты, отличная от момента проведения платежа.
func (s *Storage) MarkPeriodPaid(ctx context.Context, subscriptionID, seq, siteID int, amount float64, paidOn time.Time) error {
	const op = "storage.MarkPeriodPaid"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	payment, err := createPayment(ctx, tx, siteID, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE periods
			  SET paid = true, paid_on = $1, payment_id = $2
			  WHERE subscription_id = $3 AND seq = $4 AND paid = false`
	if _, err = tx.ExecContext(ctx, query, paidOn, payment.ID, subscriptionID, seq); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindSubscriptionsExpiringTomorrow находит абонементы, оплаченное покрытие
// которых заканчивается завтра — вход планировщика уведомлений.
func (s *Storage) FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.FindSubscriptionsExpiringTomorrow"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.uid, s.site_id, s.spot, s.holder, s.holder_email, s.service_id, s.vehicle_class_id,
			      s.start_date, s.end_date, s.cancelled, s.payment_id
			  FROM subscriptions s
			  JOIN periods p ON p.subscription_id = s.id
			  WHERE s.cancelled = false
			    AND p.paid = true
			    AND p.end_date::DATE = CURRENT_DATE + INTERVAL '1 day'`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var endDate sql.NullTime
	var paymentID sql.NullInt64
	if err := row.Scan(&sub.ID, &sub.UID, &sub.SiteID, &sub.Spot, &sub.Holder,
		&sub.HolderEmail, &sub.ServiceID, &sub.VehicleClassID, &sub.StartDate, &endDate,
		&sub.Cancelled, &paymentID); err != nil {
		return nil, err
	}
	if endDate.Valid {
		sub.EndDate = &endDate.Time
	}
	if paymentID.Valid {
		id := int(paymentID.Int64)
		sub.PaymentID = &id
	}
	return &sub, nil
}
