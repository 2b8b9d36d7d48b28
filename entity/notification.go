package entity

import (
	"strconv"
	"time"
)

// Notification is the decoded Ds_MerchantParameters of an asynchronous
// gateway notification. Fields holds every decoded value as delivered;
// the named fields are the ones the service acts on.
type Notification struct {
	Order             string            `json:"order" bson:"order"`
	Response          string            `json:"response" bson:"response"`
	AuthorisationCode string            `json:"authorisation_code" bson:"authorisation_code"`
	Amount            string            `json:"amount" bson:"amount"`
	Currency          string            `json:"currency" bson:"currency"`
	TransactionType   string            `json:"transaction_type" bson:"transaction_type"`
	MerchantCode      string            `json:"merchant_code" bson:"merchant_code"`
	Terminal          string            `json:"terminal" bson:"terminal"`
	MerchantData      string            `json:"merchant_data" bson:"merchant_data"`
	Date              string            `json:"date" bson:"date"`
	Hour              string            `json:"hour" bson:"hour"`
	SecurePayment     string            `json:"secure_payment" bson:"secure_payment"`
	CardCountry       string            `json:"card_country" bson:"card_country"`
	CardBrand         string            `json:"card_brand" bson:"card_brand"`
	Fields            map[string]string `json:"fields" bson:"fields"`
}

// ResponseCode returns Ds_Response as a number.
func (n *Notification) ResponseCode() (int, bool) {
	code, err := strconv.Atoi(n.Response)
	if err != nil {
		return 0, false
	}
	return code, true
}

// Authorized reports whether the response code is a success for the
// notification's transaction type: 0000-0099 for payments, 0900 for refunds
// and confirmations, 0400 for cancellations.
func (n *Notification) Authorized() bool {
	code, ok := n.ResponseCode()
	if !ok {
		return false
	}
	switch n.TransactionType {
	case "3", "2":
		return code == 900
	case "9":
		return code == 400
	default:
		return code >= 0 && code <= 99
	}
}

// NotificationResult is the audit record of one processed notification.
type NotificationResult struct {
	RequestId    string        `json:"request_id" bson:"request_id"`
	Order        string        `json:"order" bson:"order"`
	Valid        bool          `json:"valid" bson:"valid"`
	Duplicate    bool          `json:"duplicate" bson:"duplicate"`
	Applied      bool          `json:"applied" bson:"applied"`
	Outcome      string        `json:"outcome" bson:"outcome"`
	Version      string        `json:"signature_version" bson:"signature_version"`
	Notification *Notification `json:"notification,omitempty" bson:"notification"`
	TimeReceived time.Time     `json:"time_received" bson:"time_received"`
}

func (r *NotificationResult) DataType() string {
	return "notification"
}

// Notification outcomes recorded on NotificationResult. Applied notifications
// record the resulting order status instead.
const (
	OutcomeAccepted      = "accepted"
	OutcomeDuplicate     = "duplicate"
	OutcomeUnknownOrder  = "unknown_order"
	OutcomeRejected      = "rejected"
	OutcomeMalformed     = "malformed"
	OutcomeMissingFields = "missing_fields"
	OutcomeError         = "error"
)
