package internal

import "errors"

var (
	ErrEncoding           = errors.New("encoding error")
	ErrDecoding           = errors.New("decoding error")
	ErrMissingOrderNumber = errors.New("missing order number")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrStale              = errors.New("stale notification")
	ErrCipher             = errors.New("cipher error")
	ErrInvalidKeyMaterial = errors.New("invalid key material")
	ErrStoreUnavailable   = errors.New("reservation store unavailable")

	ErrUnreadableReservation = errors.New("reservation record unreadable")

	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyPaid         = errors.New("reservation already paid")
	ErrInvalidOrder        = errors.New("invalid order number")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// isRejection reports whether a notification error is the gateway's fault,
// answered with 400 and never retried.
func isRejection(err error) bool {
	return !errors.Is(err, ErrStoreUnavailable) &&
		!errors.Is(err, ErrCipher) &&
		!errors.Is(err, ErrUnreadableReservation) &&
		!errors.Is(err, ErrInvalidKeyMaterial)
}
