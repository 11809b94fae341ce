package services

import (
	"context"
	"redsyspay/entity"
)

// ReservationStore is the system of record for reservations. The payment
// service never creates reservations, it only reads them and updates their
// payment fields keyed by order number.
type ReservationStore interface {
	// GetReservationByOrderId returns nil without error when no reservation has the order number.
	GetReservationByOrderId(ctx context.Context, orderId string) (*entity.Reservation, error)
	// UpdateReservationStatus must leave a reservation whose payment status is
	// paid untouched unless the update is paid too, checked atomically with the
	// write, and report that case as already paid rather than not found.
	UpdateReservationStatus(ctx context.Context, orderId string, status entity.ReservationStatus) error
}

// Database is a reservation store that also keeps logs and notification audit records.
type Database interface {
	ReservationStore
	LogStore
	SavePaymentResult(ctx context.Context, result *entity.PaymentResult) error
}

type LogStore interface {
	WriteLogMessage(ctx context.Context, data Data) error
}

type Data interface {
	DataType() string
}
