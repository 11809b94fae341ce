package services

import (
	"context"
	"redsyspay/entity"
	"time"
)

// NotificationCache remembers applied notifications so redeliveries can be
// answered without touching the reservation store.
type NotificationCache interface {
	Seen(ctx context.Context, key string) (paymentStatus string, ok bool, err error)
	Remember(ctx context.Context, key string, paymentStatus string, ttl time.Duration) error
}

type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error
}
