package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"redsyspay/config"
	"redsyspay/entity"
	"redsyspay/services"
	"time"
)

// startupCheckOrder is only used to check that the merchant secret derives a key.
const startupCheckOrder = "0000"

// auditStore is implemented by stores that keep verified notifications.
type auditStore interface {
	SavePaymentResult(ctx context.Context, result *entity.PaymentResult) error
}

// Payments signs redirect requests for Redsys and applies the payment
// notifications Redsys posts back. It keeps no state between requests;
// the reservation store is the only shared resource.
type Payments struct {
	conf      *config.Config
	store     services.ReservationStore
	audit     auditStore
	cache     services.NotificationCache
	publisher services.EventPublisher
	logger    services.LogHandler
	retry     retryPolicy
	location  *time.Location
	zoneErr   error
	now       func() time.Time
}

func NewPayments(conf *config.Config) *Payments {
	location, err := time.LoadLocation(conf.Webhook.TimeZone)
	if err != nil {
		location = time.UTC
	}
	return &Payments{
		conf:     conf,
		location: location,
		zoneErr:  err,
		now:      time.Now,
		retry: retryPolicy{
			attempts: conf.Store.RetryAttempts,
			backoff:  conf.Store.RetryBackoff,
			timeout:  conf.Store.Timeout,
		},
	}
}

func (p *Payments) SetDatabase(store services.ReservationStore) {
	p.store = store
	if audit, ok := store.(auditStore); ok {
		p.audit = audit
	}
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
	if p.zoneErr != nil {
		p.logger.Warn(fmt.Sprintf("time zone %s not loaded, using UTC: %v", p.conf.Webhook.TimeZone, p.zoneErr))
	}
}

func (p *Payments) SetNotificationCache(cache services.NotificationCache) {
	p.cache = cache
}

func (p *Payments) SetEventPublisher(publisher services.EventPublisher) {
	p.publisher = publisher
}

// Validate checks merchant configuration and key material so that key
// derivation cannot fail at request time.
func (p *Payments) Validate() error {
	if err := p.conf.Check(); err != nil {
		return err
	}
	if p.zoneErr != nil {
		return fmt.Errorf("load time zone %s: %w", p.conf.Webhook.TimeZone, p.zoneErr)
	}
	key, err := DeriveKey(p.conf.Merchant.Secret, startupCheckOrder)
	if err != nil {
		return fmt.Errorf("merchant secret: %w", err)
	}
	key.Wipe()
	return nil
}

// CreateRedirect builds the signed form that sends the customer's browser
// to the gateway to pay the reservation identified by orderId.
func (p *Payments) CreateRedirect(ctx context.Context, orderId string) (*entity.RedirectForm, error) {
	if err := ValidateOrder(orderId); err != nil {
		return nil, err
	}
	reservation, err := p.getReservation(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if reservation.PaymentStatus == entity.PaymentPaid {
		return nil, fmt.Errorf("%w: order %s", ErrAlreadyPaid, orderId)
	}
	if reservation.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: order %s has amount %d", ErrInvalidAmount, orderId, reservation.TotalAmount)
	}
	amount, err := FormatAmount(reservation.TotalAmount)
	if err != nil {
		return nil, err
	}

	merchant := p.conf.Merchant
	parameters := entity.NewMerchantParameters().
		Set(entity.MerchantAmount, amount).
		Set(entity.MerchantOrder, orderId).
		Set(entity.MerchantCode, merchant.Code).
		Set(entity.MerchantCurrency, merchant.Currency).
		Set(entity.MerchantTransactionType, merchant.TransactionType).
		Set(entity.MerchantTerminal, merchant.Terminal).
		SetOptional(entity.MerchantURL, merchant.NotifyUrl).
		SetOptional(entity.MerchantUrlOK, merchant.OkUrl).
		SetOptional(entity.MerchantUrlKO, merchant.KoUrl).
		SetOptional(entity.MerchantTitular, reservation.CustomerName).
		SetOptional(entity.MerchantLanguage, merchant.Language)

	request, err := p.newRequest(parameters)
	if err != nil {
		p.logger.Error(fmt.Sprintf("redirect: order %s", orderId), err)
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("redirect: order %s; amount %s", orderId, amount))

	return &entity.RedirectForm{
		Url:            merchant.RequestUrl,
		PaymentRequest: *request,
	}, nil
}

// SignParameters encodes and signs parameters for the order they carry.
func (p *Payments) SignParameters(parameters *entity.MerchantParameters) (*entity.PaymentRequest, error) {
	return p.newRequest(parameters)
}

func (p *Payments) newRequest(parameters *entity.MerchantParameters) (*entity.PaymentRequest, error) {
	order, err := OrderNumber(parameters)
	if err != nil {
		return nil, err
	}
	parametersBase64, err := EncodeParameters(parameters)
	if err != nil {
		return nil, fmt.Errorf("parameters encode base64: %w", err)
	}

	encryptor := NewEncryptor(p.conf.Merchant.Secret, parametersBase64, order)
	signature, err := encryptor.CreateSignature()
	if err != nil {
		countSignature("outbound", "error")
		return nil, fmt.Errorf("create signature: %w", err)
	}
	countSignature("outbound", "ok")

	return &entity.PaymentRequest{
		Parameters:       parametersBase64,
		Signature:        signature,
		SignatureVersion: entity.SignatureVersion,
	}, nil
}

// Notify validates a payment notification and applies its outcome to the
// reservation. Every error except ErrStoreUnavailable is a final rejection.
func (p *Payments) Notify(ctx context.Context, form url.Values) (*entity.NotificationResult, error) {
	started := time.Now()
	result, err := p.notify(ctx, form)
	observeNotification(notificationLabel(result, err), time.Since(started).Seconds())
	return result, err
}

func (p *Payments) notify(ctx context.Context, form url.Values) (*entity.NotificationResult, error) {
	request := entity.PaymentRequest{
		SignatureVersion: form.Get("Ds_SignatureVersion"),
		Parameters:       form.Get("Ds_MerchantParameters"),
		Signature:        form.Get("Ds_Signature"),
	}
	if request.SignatureVersion != "" && request.SignatureVersion != entity.SignatureVersion {
		p.logger.Warn(fmt.Sprintf("notify: unexpected signature version %s", request.SignatureVersion))
	}

	parameters, err := DecodeParameters(request.Parameters)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("notify: %v", err))
		return nil, err
	}
	order, err := OrderNumber(parameters)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("notify: no usable order in %v: %v", parameters.Keys(), err))
		return nil, err
	}

	if err = p.verify(order, request); err != nil {
		return nil, err
	}
	payment := ReadPaymentParameters(parameters)

	if err = p.checkFreshness(order, payment); err != nil {
		return nil, err
	}

	outcome := ClassifyResponse(payment.Response, payment.TransactionType)
	p.logger.Info(fmt.Sprintf("notify: order %s; type %s; response %s (%s); outcome %s; amount %s; auth %s",
		order, payment.TransactionType, payment.Response, DescribeResponse(payment.Response), outcome, payment.Amount, secret(payment.AuthorisationCode)))

	key := notificationKey(order, request.Signature)
	if paymentStatus, ok := p.seen(ctx, key); ok {
		p.logger.Info(fmt.Sprintf("notify: order %s already applied as %s", order, paymentStatus))
		return &entity.NotificationResult{
			Success:       true,
			PaymentStatus: paymentStatus,
			OrderNumber:   order,
			Outcome:       outcome,
			Duplicate:     true,
		}, nil
	}

	p.saveResult(ctx, payment, outcome)

	paymentStatus, err := p.apply(ctx, order, payment, outcome)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			p.logger.Error(fmt.Sprintf("notify: order %s", order), err)
		} else {
			p.logger.Warn(fmt.Sprintf("notify: order %s: %v", order, err))
		}
		return nil, err
	}

	p.remember(ctx, key, paymentStatus)
	p.publish(ctx, order, payment, outcome, paymentStatus)

	return &entity.NotificationResult{
		Success:       true,
		PaymentStatus: paymentStatus,
		OrderNumber:   order,
		Outcome:       outcome,
	}, nil
}

// verify re-signs the received payload bytes, never a re-serialized copy.
func (p *Payments) verify(order string, request entity.PaymentRequest) error {
	if request.Signature == "" {
		countSignature("inbound", "invalid")
		p.logger.Warn(fmt.Sprintf("notify: order %s without signature", order))
		return fmt.Errorf("%w: empty signature for order %s", ErrInvalidSignature, order)
	}
	valid, err := NewEncryptor(p.conf.Merchant.Secret, request.Parameters, order).VerifySignature(request.Signature)
	if err != nil {
		countSignature("inbound", "error")
		p.logger.Error(fmt.Sprintf("notify: order %s: derive key", order), err)
		return err
	}
	if !valid {
		countSignature("inbound", "invalid")
		p.logger.Warn(fmt.Sprintf("notify: signature mismatch for order %s", order))
		return fmt.Errorf("%w: order %s", ErrInvalidSignature, order)
	}
	countSignature("inbound", "ok")
	return nil
}

// checkFreshness is skipped for notifications without Ds_Date/Ds_Hour; the
// order-keyed idempotent apply still bounds what a replay can change.
func (p *Payments) checkFreshness(order string, payment entity.PaymentParameters) error {
	if !p.conf.Webhook.CheckFreshness {
		return nil
	}
	delivered, ok := NotificationTime(payment, p.location)
	if !ok {
		p.logger.Debug(fmt.Sprintf("notify: order %s carries no timestamp", order))
		return nil
	}
	if err := CheckFreshness(delivered, p.now().Unix(), p.conf.Webhook.MaxAgeSeconds); err != nil {
		p.logger.Warn(fmt.Sprintf("notify: order %s: %v", order, err))
		return err
	}
	return nil
}

// apply writes the outcome keyed by order number. Repeating it with the same
// input leaves the reservation unchanged, and a paid reservation is never
// moved back by a non-authorized notification, including one racing with
// the delivery that marked it paid.
func (p *Payments) apply(ctx context.Context, order string, payment entity.PaymentParameters, outcome entity.PaymentOutcome) (string, error) {
	status, paymentStatus := outcome.ReservationUpdate()
	update := entity.ReservationStatus{
		Status:          status,
		PaymentStatus:   paymentStatus,
		PaymentId:       order,
		PaymentAuthCode: payment.AuthorisationCode,
	}

	reservation, err := p.getReservation(ctx, order)
	if err != nil {
		return "", err
	}
	if reservation.Matches(update) {
		p.logger.Debug(fmt.Sprintf("notify: order %s already in state %s/%s", order, status, paymentStatus))
		return paymentStatus, nil
	}
	if reservation.PaymentStatus == entity.PaymentPaid && outcome != entity.OutcomeAuthorized {
		p.logger.Warn(fmt.Sprintf("notify: order %s is paid, ignoring outcome %s", order, outcome))
		return reservation.PaymentStatus, nil
	}

	// the store re-checks paid in the write itself; another delivery may have
	// confirmed the payment since the read above
	err = p.retry.do(ctx, "update reservation", func(ctx context.Context) error {
		return p.store.UpdateReservationStatus(ctx, order, update)
	}, p.onRetry)
	if errors.Is(err, ErrAlreadyPaid) {
		p.logger.Warn(fmt.Sprintf("notify: order %s was paid concurrently, ignoring outcome %s", order, outcome))
		return entity.PaymentPaid, nil
	}
	if err != nil {
		return "", err
	}
	return paymentStatus, nil
}

func (p *Payments) getReservation(ctx context.Context, order string) (*entity.Reservation, error) {
	if p.store == nil {
		return nil, fmt.Errorf("%w: database not set", ErrStoreUnavailable)
	}
	var reservation *entity.Reservation
	err := p.retry.do(ctx, "get reservation", func(ctx context.Context) error {
		found, e := p.store.GetReservationByOrderId(ctx, order)
		if e != nil {
			return e
		}
		reservation = found
		return nil
	}, p.onRetry)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: order %s", ErrReservationNotFound, order)
	}
	return reservation, nil
}

func (p *Payments) onRetry(attempt int, err error) {
	storeRetriesTotal.Inc()
	p.logger.Warn(fmt.Sprintf("reservation store attempt %d failed: %v", attempt, err))
}

func (p *Payments) saveResult(ctx context.Context, payment entity.PaymentParameters, outcome entity.PaymentOutcome) {
	if p.audit == nil {
		return
	}
	result := &entity.PaymentResult{
		Time:    p.now(),
		Outcome: outcome,
		Params:  payment,
	}
	if err := p.audit.SavePaymentResult(ctx, result); err != nil {
		p.logger.Error("save payment result", err)
	}
}

func (p *Payments) seen(ctx context.Context, key string) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	paymentStatus, ok, err := p.cache.Seen(ctx, key)
	if err != nil {
		p.logger.Error("notification cache lookup", err)
		return "", false
	}
	return paymentStatus, ok
}

func (p *Payments) remember(ctx context.Context, key, paymentStatus string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Remember(ctx, key, paymentStatus, p.conf.Webhook.DedupTTL); err != nil {
		p.logger.Error("notification cache store", err)
	}
}

func (p *Payments) publish(ctx context.Context, order string, payment entity.PaymentParameters, outcome entity.PaymentOutcome, paymentStatus string) {
	if p.publisher == nil {
		return
	}
	status, _ := outcome.ReservationUpdate()
	event := &entity.PaymentEvent{
		OrderNumber:   order,
		Outcome:       outcome,
		Status:        status,
		PaymentStatus: paymentStatus,
		ResponseCode:  payment.Response,
		Time:          p.now().Unix(),
	}
	if err := p.publisher.PublishPaymentEvent(ctx, event); err != nil {
		p.logger.Error(fmt.Sprintf("publish payment event for order %s", order), err)
	}
}

func notificationKey(order, signature string) string {
	return order + ":" + normalizeSignature(signature)
}

func notificationLabel(result *entity.NotificationResult, err error) string {
	switch {
	case err == nil && result != nil && result.Duplicate:
		return "duplicate"
	case err == nil && result != nil:
		return string(result.Outcome)
	case errors.Is(err, ErrDecoding):
		return "decoding_error"
	case errors.Is(err, ErrMissingOrderNumber):
		return "missing_order"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrStale):
		return "stale"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrReservationNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
