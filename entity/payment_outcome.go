package entity

// PaymentOutcome is derived solely from the gateway response code.
type PaymentOutcome string

const (
	OutcomePreAuthorized PaymentOutcome = "preauthorized"
	OutcomeAuthorized    PaymentOutcome = "authorized"
	OutcomeRejected      PaymentOutcome = "rejected"
	OutcomeSystemError   PaymentOutcome = "system_error"
	OutcomePending       PaymentOutcome = "pending"
)

// Reservation status values written by the webhook.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"

	PaymentPaid          = "paid"
	PaymentPreAuthorized = "preauthorized"
	PaymentFailed        = "failed"
	PaymentError         = "error"
	PaymentPending       = "pending"
)

// ReservationUpdate returns the target reservation state for an outcome.
func (o PaymentOutcome) ReservationUpdate() (status string, paymentStatus string) {
	switch o {
	case OutcomeAuthorized:
		return StatusConfirmed, PaymentPaid
	case OutcomePreAuthorized:
		return StatusPending, PaymentPreAuthorized
	case OutcomeRejected:
		return StatusPending, PaymentFailed
	case OutcomeSystemError:
		return StatusPending, PaymentError
	default:
		return StatusPending, PaymentPending
	}
}

// PaymentEvent is published once a notification has been applied.
type PaymentEvent struct {
	OrderNumber   string         `json:"order_number"`
	Outcome       PaymentOutcome `json:"outcome"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
	ResponseCode  string         `json:"response_code"`
	Time          int64          `json:"time"`
}
