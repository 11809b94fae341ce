package entity

// NotificationResult is the body returned to the gateway after a notification is applied.
type NotificationResult struct {
	Success       bool           `json:"success"`
	PaymentStatus string         `json:"paymentStatus"`
	OrderNumber   string         `json:"orderNumber"`
	Outcome       PaymentOutcome `json:"-"`
	Duplicate     bool           `json:"-"`
}
