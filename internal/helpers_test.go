package internal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"paylink/entity"
	"paylink/internal/redsys"
	"paylink/services"
)

const testSecret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

func testGateway() redsys.Config {
	return redsys.Config{
		Secret:          testSecret,
		MerchantCode:    "999008881",
		Terminal:        "1",
		MerchantName:    "Estudio Pilates",
		NotificationURL: "https://shop.example.com/api/redsys/notify",
		SuccessURL:      "https://shop.example.com/pago/ok",
		FailureURL:      "https://shop.example.com/pago/ko",
	}
}

func quietLogger() *Logger {
	l := NewLogger("test", false, nil)
	l.SetOutput(io.Discard, "json")
	return l
}

func newTestPayments(database services.Database) *Payments {
	p := NewPayments(testGateway())
	p.SetLogger(quietLogger())
	if database != nil {
		p.SetDatabase(database)
	}
	return p
}

// notificationBody encodes fields the way the gateway posts them back.
func notificationBody(t *testing.T, fields map[string]string, secret string) []byte {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	parameters := base64.URLEncoding.EncodeToString(data)
	signature, err := redsys.Sign(parameters, fields["Ds_Order"], secret)
	require.NoError(t, err)
	form := url.Values{
		redsys.FieldSignatureVersion: {redsys.SignatureVersion},
		redsys.FieldParameters:       {parameters},
		redsys.FieldSignature:        {signature},
	}
	return []byte(form.Encode())
}

func approvedNotification(order, amount string) map[string]string {
	return map[string]string{
		"Ds_Date":              "14%2F10%2F2026",
		"Ds_Hour":              "10%3A15",
		"Ds_Amount":            amount,
		"Ds_Currency":          "978",
		"Ds_Order":             order,
		"Ds_MerchantCode":      "999008881",
		"Ds_Terminal":          "1",
		"Ds_Response":          "0000",
		"Ds_TransactionType":   "0",
		"Ds_SecurePayment":     "1",
		"Ds_AuthorisationCode": "123456",
	}
}

// memoryDatabase is an in-memory services.Database.
type memoryDatabase struct {
	mu         sync.Mutex
	orders     map[string]entity.PaymentOrder
	results    []entity.NotificationResult
	logs       []entity.LogMessage
	collisions int
	getErr     error
	saveErr    error
}

func newMemoryDatabase() *memoryDatabase {
	return &memoryDatabase{orders: make(map[string]entity.PaymentOrder)}
}

func (m *memoryDatabase) WriteLogMessage(_ context.Context, data services.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if message, ok := data.(*entity.LogMessage); ok {
		m.logs = append(m.logs, *message)
	}
	return nil
}

func (m *memoryDatabase) InsertPaymentOrder(_ context.Context, order *entity.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collisions > 0 {
		m.collisions--
		return services.ErrDuplicateOrder
	}
	if _, ok := m.orders[order.Order]; ok {
		return services.ErrDuplicateOrder
	}
	m.orders[order.Order] = *order
	return nil
}

func (m *memoryDatabase) SavePaymentOrder(_ context.Context, order *entity.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.orders[order.Order] = *order
	return nil
}

func (m *memoryDatabase) GetPaymentOrder(_ context.Context, order string) (*entity.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	stored, ok := m.orders[order]
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

func (m *memoryDatabase) SavePaymentResult(_ context.Context, result *entity.NotificationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, *result)
	return nil
}

func (m *memoryDatabase) order(id string) entity.PaymentOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memoryDatabase) resultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

var errStorage = errors.New("storage unavailable")
