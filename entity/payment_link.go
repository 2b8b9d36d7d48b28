package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountInput holds a major-unit amount exactly as the caller sent it: either
// a JSON string ("19,90", "19.90") or a JSON number (19.9). Parsing happens
// later, before anything is signed.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	// exponent forms such as 1e2 are rewritten as plain decimals
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*a = AmountInput(d.String())
	return nil
}

// PaymentLinkRequest is the caller's request to start a card payment.
type PaymentLinkRequest struct {
	Amount       AmountInput `json:"amount"`
	Order        string      `json:"order,omitempty"`
	Description  string      `json:"description,omitempty"`
	CustomerName string      `json:"customer_name,omitempty"`
	SuccessURL   string      `json:"success_url,omitempty"`
	FailureURL   string      `json:"failure_url,omitempty"`
	MerchantData string      `json:"merchant_data,omitempty"`
}

// PaymentLink is everything the caller needs to redirect the customer: the
// gateway URL and the three hidden form fields, plus the resolved order and
// minor-unit amount for its own bookkeeping.
type PaymentLink struct {
	URL        string             `json:"url"`
	Fields     PaymentRequest     `json:"fields"`
	Order      string             `json:"order"`
	Amount     int64              `json:"amount"`
	Parameters MerchantParameters `json:"-"`
}
