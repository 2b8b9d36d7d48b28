package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pendingOrder() *PaymentOrder {
	return &PaymentOrder{Order: "1234ABC", Amount: 2999, Currency: "978", Status: OrderStatusPending}
}

func TestPaymentOrder_Close(t *testing.T) {
	tests := []struct {
		name         string
		notification Notification
		status       string
	}{
		{"approved", Notification{Response: "0000", Amount: "2999", Currency: "978", TransactionType: "0"}, OrderStatusPaid},
		{"approved 0099", Notification{Response: "0099", Amount: "2999", TransactionType: "0"}, OrderStatusPaid},
		{"declined", Notification{Response: "0190", Amount: "2999", Currency: "978", TransactionType: "0"}, OrderStatusDeclined},
		{"non numeric response", Notification{Response: "abc", Amount: "2999"}, OrderStatusDeclined},
		{"amount mismatch", Notification{Response: "0000", Amount: "100", Currency: "978"}, OrderStatusMismatch},
		{"signed amount", Notification{Response: "0000", Amount: "+2999"}, OrderStatusMismatch},
		{"currency mismatch", Notification{Response: "0000", Amount: "2999", Currency: "840"}, OrderStatusMismatch},
		{"refund confirmed", Notification{Response: "0900", Amount: "2999", TransactionType: "3"}, OrderStatusPaid},
		{"refund with payment code", Notification{Response: "0000", Amount: "2999", TransactionType: "3"}, OrderStatusDeclined},
		{"cancellation", Notification{Response: "0400", Amount: "2999", TransactionType: "9"}, OrderStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := pendingOrder()
			n := tt.notification
			assert.True(t, order.Close(&n))
			assert.Equal(t, tt.status, order.Status)
			assert.True(t, order.IsCompleted)
			assert.Equal(t, n.Response, order.Result)
			assert.False(t, order.TimeClosed.IsZero())
		})
	}
}

func TestPaymentOrder_CloseOnce(t *testing.T) {
	order := pendingOrder()
	assert.True(t, order.Close(&Notification{Response: "0000", Amount: "2999", AuthorisationCode: "111111"}))
	closed := *order

	assert.False(t, order.Close(&Notification{Response: "0190", Amount: "2999", AuthorisationCode: "222222"}))
	assert.Equal(t, closed, *order)
}

func TestPaymentOrder_Date(t *testing.T) {
	order := pendingOrder()
	order.Close(&Notification{Response: "0000", Date: "14/10/2026", Hour: "10:15"})
	assert.Equal(t, "14/10/2026 10:15", order.Date)
}
