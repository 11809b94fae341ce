package entity

import "time"

// Reservation is owned by the booking flow; the payment service only reads it
// and writes the payment fields listed in ReservationStatus.
type Reservation struct {
	Id              string    `json:"id" bson:"_id,omitempty"`
	OrderNumber     string    `json:"order_number" bson:"order_number"`
	TourId          string    `json:"tour_id" bson:"tour_id"`
	CustomerName    string    `json:"customer_name" bson:"customer_name"`
	TotalAmount     int64     `json:"total_amount" bson:"total_amount"`
	Status          string    `json:"status" bson:"status"`
	PaymentStatus   string    `json:"payment_status" bson:"payment_status"`
	PaymentId       string    `json:"payment_id" bson:"payment_id"`
	PaymentAuthCode string    `json:"payment_auth_code" bson:"payment_auth_code"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// ReservationStatus is the full set of fields the webhook may change.
type ReservationStatus struct {
	Status          string `json:"status" bson:"status"`
	PaymentStatus   string `json:"payment_status" bson:"payment_status"`
	PaymentId       string `json:"payment_id" bson:"payment_id"`
	PaymentAuthCode string `json:"payment_auth_code" bson:"payment_auth_code"`
}

// Matches reports whether the reservation already holds the given state.
func (r *Reservation) Matches(update ReservationStatus) bool {
	return r.Status == update.Status &&
		r.PaymentStatus == update.PaymentStatus &&
		r.PaymentId == update.PaymentId &&
		r.PaymentAuthCode == update.PaymentAuthCode
}
