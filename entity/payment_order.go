// Package entity defines data models for the payment-link service.
package entity

import (
	"strconv"
	"time"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusDeclined = "declined"
	OrderStatusMismatch = "mismatch"
)

// PaymentOrder is the persisted record of one payment attempt. It closes the
// trust boundary of a notification: a signature proves the gateway sent it,
// the order record proves it belongs to a payment we started.
type PaymentOrder struct {
	Order             string    `json:"order" bson:"order"`
	Amount            int64     `json:"amount" bson:"amount"`
	Currency          string    `json:"currency" bson:"currency"`
	Description       string    `json:"description,omitempty" bson:"description"`
	Titular           string    `json:"titular,omitempty" bson:"titular"`
	Status            string    `json:"status" bson:"status"`
	IsCompleted       bool      `json:"is_completed" bson:"is_completed"`
	Result            string    `json:"result" bson:"result"`
	AuthorisationCode string    `json:"authorisation_code,omitempty" bson:"authorisation_code"`
	Date              string    `json:"date,omitempty" bson:"date"`
	TimeOpened        time.Time `json:"time_opened" bson:"time_opened"`
	TimeClosed        time.Time `json:"time_closed" bson:"time_closed"`
}

// Close applies a verified notification to the order. It returns false and
// leaves the order untouched when the order was already completed, so a
// re-delivered notification is a no-op.
func (o *PaymentOrder) Close(n *Notification) bool {
	if o.IsCompleted {
		return false
	}
	o.IsCompleted = true
	o.Result = n.Response
	o.AuthorisationCode = n.AuthorisationCode
	o.TimeClosed = time.Now()
	if n.Date != "" {
		o.Date = n.Date + " " + n.Hour
	}

	switch {
	case !o.Matches(n):
		o.Status = OrderStatusMismatch
	case n.Authorized():
		o.Status = OrderStatusPaid
	default:
		o.Status = OrderStatusDeclined
	}
	return true
}

// Matches reports whether the notification amount and currency agree with
// what was requested.
func (o *PaymentOrder) Matches(n *Notification) bool {
	if n.Currency != "" && o.Currency != "" && n.Currency != o.Currency {
		return false
	}
	if n.Amount == "" {
		return true
	}
	amount, ok := parseDigits(n.Amount)
	return ok && amount == o.Amount
}

func parseDigits(s string) (int64, bool) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}
