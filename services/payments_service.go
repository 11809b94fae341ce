package services

import (
	"context"
	"net/url"
	"redsyspay/entity"
)

type Payments interface {
	CreateRedirect(ctx context.Context, orderId string) (*entity.RedirectForm, error)
	Notify(ctx context.Context, form url.Values) (*entity.NotificationResult, error)
}
