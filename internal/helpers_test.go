package internal

import (
	"context"
	"errors"
	"io"
	"net/url"
	"redsyspay/config"
	"redsyspay/entity"
	"redsyspay/services"
	"sync"
	"testing"
	"time"
)

const (
	testSecret       entity.SecretKey = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"
	testOrder                         = "e5e0cc38c984"
	testMerchantCode                  = "367529286"
)

var errConnection = errors.New("connection refused")

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Merchant.Secret = testSecret
	conf.Merchant.Code = testMerchantCode
	conf.Merchant.Terminal = "1"
	conf.Merchant.Currency = "978"
	conf.Merchant.TransactionType = "1"
	conf.Merchant.RequestUrl = "https://sis-t.redsys.es:25443/sis/realizarPago"
	conf.Merchant.NotifyUrl = "https://api.example.com/notify?source=redsys&v=1"
	conf.Webhook.MaxAgeSeconds = DefaultMaxAgeSeconds
	conf.Webhook.CheckFreshness = true
	conf.Webhook.TimeZone = "UTC"
	conf.Webhook.DedupTTL = time.Hour
	conf.Store.Type = config.StoreMongo
	conf.Store.RetryAttempts = 3
	conf.Store.RetryBackoff = time.Millisecond
	conf.Store.Timeout = time.Second
	conf.Listen.AllowedOrigins = []string{"*"}
	return conf
}

func testLogger() *Logger {
	return newLogger("test", true, nil, io.Discard)
}

// notifiedAt is the clock used by payments under test; it matches the
// Ds_Date/Ds_Hour of testNotification.
var notifiedAt = time.Date(2026, time.October, 15, 10, 31, 0, 0, time.UTC)

func testPayments(t *testing.T, store services.ReservationStore) *Payments {
	t.Helper()
	payments := NewPayments(testConfig())
	payments.SetLogger(testLogger())
	payments.SetDatabase(store)
	payments.now = func() time.Time { return notifiedAt }
	return payments
}

// testNotification builds a gateway notification for the order with the
// given response code, signed with the test secret.
func testNotification(t *testing.T, order, response, transactionType string) url.Values {
	t.Helper()
	params := entity.NewMerchantParameters().
		Set("Ds_Date", "15%2F10%2F2026").
		Set("Ds_Hour", "10%3A30").
		Set("Ds_SecurePayment", "1").
		Set("Ds_Amount", "18000").
		Set("Ds_Currency", "978").
		Set("Ds_Order", order).
		Set("Ds_MerchantCode", testMerchantCode).
		Set("Ds_Terminal", "001").
		Set("Ds_Response", response).
		Set("Ds_TransactionType", transactionType).
		Set("Ds_AuthorisationCode", "812345").
		Set("Ds_Card_Country", "724")
	return signedForm(t, params, order)
}

func signedForm(t *testing.T, params *entity.MerchantParameters, order string) url.Values {
	t.Helper()
	payload, err := EncodeParameters(params)
	if err != nil {
		t.Fatalf("encode parameters: %v", err)
	}
	signature, err := NewEncryptor(testSecret, payload, order).CreateSignature()
	if err != nil {
		t.Fatalf("create signature: %v", err)
	}
	return url.Values{
		"Ds_SignatureVersion":   {entity.SignatureVersion},
		"Ds_MerchantParameters": {payload},
		"Ds_Signature":          {signature},
	}
}

// memoryStore is an in-memory reservation store with injectable failures.
type memoryStore struct {
	mu           sync.Mutex
	reservations map[string]entity.Reservation
	updates      int
	failures     int
	results      map[string]*entity.PaymentResult
	logs         int
	unreadable   bool

	// readGate, when set, holds every read until the gate is released, so
	// concurrent deliveries all see the same stored state.
	readGate *sync.WaitGroup
	// beforeUpdate runs outside the lock ahead of every write.
	beforeUpdate func(status entity.ReservationStatus)
	reads        int
}

func newMemoryStore(reservations ...entity.Reservation) *memoryStore {
	store := &memoryStore{
		reservations: make(map[string]entity.Reservation),
		results:      make(map[string]*entity.PaymentResult),
	}
	for _, reservation := range reservations {
		store.reservations[reservation.OrderNumber] = reservation
	}
	return store
}

func (m *memoryStore) fail() error {
	if m.failures > 0 {
		m.failures--
		return errConnection
	}
	return nil
}

func (m *memoryStore) GetReservationByOrderId(_ context.Context, orderId string) (*entity.Reservation, error) {
	reservation, ok, err := m.read(orderId)
	if m.readGate != nil {
		m.readGate.Done()
		m.readGate.Wait()
	}
	if err != nil || !ok {
		return nil, err
	}
	return &reservation, nil
}

func (m *memoryStore) read(orderId string) (entity.Reservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if err := m.fail(); err != nil {
		return entity.Reservation{}, false, err
	}
	if m.unreadable {
		return entity.Reservation{}, false, permanent(ErrUnreadableReservation)
	}
	reservation, ok := m.reservations[orderId]
	return reservation, ok, nil
}

func (m *memoryStore) UpdateReservationStatus(_ context.Context, orderId string, status entity.ReservationStatus) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate(status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	reservation, ok := m.reservations[orderId]
	if !ok {
		return permanent(ErrReservationNotFound)
	}
	if reservation.PaymentStatus == entity.PaymentPaid && status.PaymentStatus != entity.PaymentPaid {
		return permanent(ErrAlreadyPaid)
	}
	reservation.Status = status.Status
	reservation.PaymentStatus = status.PaymentStatus
	reservation.PaymentId = status.PaymentId
	reservation.PaymentAuthCode = status.PaymentAuthCode
	m.reservations[orderId] = reservation
	m.updates++
	return nil
}

func (m *memoryStore) WriteLogMessage(_ context.Context, _ services.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs++
	return nil
}

func (m *memoryStore) SavePaymentResult(_ context.Context, result *entity.PaymentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.Params.Order+":"+result.Params.Response] = result
	return nil
}

func (m *memoryStore) reservation(orderId string) entity.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reservations[orderId]
}

func (m *memoryStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs
}

func (m *memoryStore) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *memoryStore) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

func (c *memoryCache) Seen(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memoryCache) Remember(_ context.Context, key string, paymentStatus string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = paymentStatus
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.PaymentEvent
}

func (r *recordingPublisher) PublishPaymentEvent(_ context.Context, event *entity.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func pendingReservation(order string) entity.Reservation {
	return entity.Reservation{
		Id:            "rsv-" + order,
		OrderNumber:   order,
		TourId:        "tour-42",
		CustomerName:  "Ana Pérez",
		TotalAmount:   18000,
		Status:        entity.StatusPending,
		PaymentStatus: entity.PaymentPending,
	}
}
