package internal

import (
	"fmt"
	"redsyspay/entity"
	"time"
)

const DefaultMaxAgeSeconds uint32 = 300

// CheckFreshness rejects deliveries timestamped more than maxAge seconds
// away from now, in either direction. Exactly maxAge is still fresh.
func CheckFreshness(delivered int64, now int64, maxAge uint32) error {
	// unsigned difference is exact for any two int64 values
	var age uint64
	if now >= delivered {
		age = uint64(now) - uint64(delivered)
	} else {
		age = uint64(delivered) - uint64(now)
	}
	if age > uint64(maxAge) {
		return fmt.Errorf("%w: delivered at %d, now %d, window %ds", ErrStale, delivered, now, maxAge)
	}
	return nil
}

// NotificationTime reads the delivery time from Ds_Date (dd/mm/yyyy) and
// Ds_Hour (HH:MM) in the gateway time zone. The second result is false when
// the notification carries no usable timestamp.
func NotificationTime(params entity.PaymentParameters, location *time.Location) (int64, bool) {
	if params.Date == "" || params.Hour == "" {
		return 0, false
	}
	if location == nil {
		location = time.UTC
	}
	for _, layout := range notificationLayouts {
		moment, err := time.ParseInLocation(layout, params.Date+" "+params.Hour, location)
		if err == nil {
			return moment.Unix(), true
		}
	}
	return 0, false
}

var notificationLayouts = []string{"02/01/2006 15:04", "02/01/2006 15:04:05"}
