package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"redsyspay/config"
	"redsyspay/entity"
	"redsyspay/services"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectReservation = `
SELECT id, order_number, COALESCE(tour_id, ''), COALESCE(customer_name, ''), total_amount, status,
       payment_status, COALESCE(payment_id, ''), COALESCE(payment_auth_code, ''), updated_at
FROM reservations
WHERE order_number = $1`

	updateReservationStatus = `
UPDATE reservations
SET status = $2, payment_status = $3, payment_id = $4, payment_auth_code = $5, updated_at = now()
WHERE order_number = $1 AND (COALESCE(payment_status, '') <> 'paid' OR $3 = 'paid')`

	reservationExists = `
SELECT EXISTS (SELECT 1 FROM reservations WHERE order_number = $1)`

	insertLogMessage = `
INSERT INTO payment_log (time, level, category, text)
VALUES ($1, $2, $3, $4)`

	upsertPaymentResult = `
INSERT INTO payment_results (order_number, response, outcome, params, time)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (order_number, response)
DO UPDATE SET outcome = EXCLUDED.outcome, params = EXCLUDED.params, time = EXCLUDED.time`
)

// Postgres is the reservation store of the booking database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, conf *config.Config) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, conf.Postgres.Dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) GetReservationByOrderId(ctx context.Context, orderId string) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := p.pool.QueryRow(ctx, selectReservation, orderId).Scan(
		&reservation.Id,
		&reservation.OrderNumber,
		&reservation.TourId,
		&reservation.CustomerName,
		&reservation.TotalAmount,
		&reservation.Status,
		&reservation.PaymentStatus,
		&reservation.PaymentId,
		&reservation.PaymentAuthCode,
		&reservation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, readError(orderId, err)
	}
	return &reservation, nil
}

// readError marks scan failures as permanent: the row will not scan on
// retry either. Query and connection errors stay retryable.
func readError(orderId string, err error) error {
	var scanErr pgx.ScanArgError
	if errors.As(err, &scanErr) {
		return permanent(fmt.Errorf("%w: order %s: %v", ErrUnreadableReservation, orderId, err))
	}
	return err
}

func (p *Postgres) UpdateReservationStatus(ctx context.Context, orderId string, status entity.ReservationStatus) error {
	tag, err := p.pool.Exec(ctx, updateReservationStatus,
		orderId, status.Status, status.PaymentStatus, status.PaymentId, status.PaymentAuthCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err = p.pool.QueryRow(ctx, reservationExists, orderId).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return permanent(fmt.Errorf("%w: order %s", ErrAlreadyPaid, orderId))
		}
		return permanent(fmt.Errorf("%w: order %s", ErrReservationNotFound, orderId))
	}
	return nil
}

func (p *Postgres) WriteLogMessage(ctx context.Context, data services.Data) error {
	message, ok := data.(*entity.LogMessage)
	if !ok {
		return fmt.Errorf("unsupported log data %s", data.DataType())
	}
	_, err := p.pool.Exec(ctx, insertLogMessage, message.Time, message.Level, message.Category, message.Text)
	return err
}

func (p *Postgres) SavePaymentResult(ctx context.Context, result *entity.PaymentResult) error {
	params, err := json.Marshal(result.Params)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, upsertPaymentResult,
		result.Params.Order, result.Params.Response, string(result.Outcome), params, result.Time)
	return err
}
