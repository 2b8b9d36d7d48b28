package entity

import (
	"bytes"
	"encoding/json"
)

// Optional holds a string that is either absent or present. An absent value is
// left out of the encoded JSON object; a present value is always written,
// even when it is the empty string.
type Optional struct {
	value string
	set   bool
}

// Some returns a present Optional holding v.
func Some(v string) Optional {
	return Optional{value: v, set: true}
}

// Get returns the value and whether it is present.
func (o Optional) Get() (string, bool) {
	return o.value, o.set
}

func (o Optional) Value() string {
	return o.value
}

func (o Optional) IsPresent() bool {
	return o.set
}

// IsZero reports absence; it drives the omitzero struct tag.
func (o Optional) IsZero() bool {
	return !o.set
}

func (o Optional) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Some(s)
	return nil
}

// MerchantParameters represents Redsys redirect request parameters.
// These parameters are JSON-encoded, Base64-encoded and signed with HMAC-SHA256
// before being posted to the gateway. Field order is the wire order.
type MerchantParameters struct {
	// Amount in minor units (e.g., "1000" = 10.00 EUR)
	Amount string `json:"DS_MERCHANT_AMOUNT"`
	// Order number, 4-12 characters, first 4 numeric
	Order string `json:"DS_MERCHANT_ORDER"`
	// Merchant code (FUC) assigned by Redsys
	MerchantCode string `json:"DS_MERCHANT_MERCHANTCODE"`
	// Currency code (978 = EUR)
	Currency string `json:"DS_MERCHANT_CURRENCY"`
	// Transaction type: "0" = Authorization, "3" = Refund
	TransactionType string `json:"DS_MERCHANT_TRANSACTIONTYPE"`
	// Terminal number assigned by Redsys
	Terminal string `json:"DS_MERCHANT_TERMINAL"`
	// Customer is sent here after a successful payment
	UrlOK string `json:"DS_MERCHANT_URLOK"`
	// Customer is sent here after a failed payment
	UrlKO string `json:"DS_MERCHANT_URLKO"`
	// Server-to-server notification callback
	MerchantURL string `json:"DS_MERCHANT_MERCHANTURL"`

	MerchantName       Optional `json:"DS_MERCHANT_MERCHANTNAME,omitzero"`
	Titular            Optional `json:"DS_MERCHANT_TITULAR,omitzero"`
	ProductDescription Optional `json:"DS_MERCHANT_PRODUCTDESCRIPTION,omitzero"`
	// Numeric language code, e.g. "001" = Spanish, "002" = English
	ConsumerLanguage Optional `json:"DS_MERCHANT_CONSUMERLANGUAGE,omitzero"`
	// Opaque data echoed back in the notification
	MerchantData Optional `json:"DS_MERCHANT_MERCHANTDATA,omitzero"`
}
