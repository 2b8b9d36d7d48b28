package redsys

import (
	"net/url"
	"strings"

	"paylink/entity"
)

// Verification is the outcome of checking one notification. Notification is
// set whenever the payload decoded, valid or not, so business fields can be
// logged; state changes must be gated on Valid.
type Verification struct {
	Valid            bool
	Order            string
	SignatureVersion string
	Notification     *entity.Notification
}

// Verify checks the signature of a gateway notification against the order id
// found inside its own payload. A signature mismatch is Valid == false, not an
// error. Empty required fields yield ErrMissingFields before any decoding; an
// undecodable payload yields ErrMalformedPayload alongside Valid == false.
//
// Verify does not know whether the order exists or was already settled;
// callers cross-check against their own order records.
func Verify(fields url.Values, conf Config) (*Verification, error) {
	parameters := strings.TrimSpace(fields.Get(FieldParameters))
	signature := strings.TrimSpace(fields.Get(FieldSignature))

	var missing []string
	if parameters == "" {
		missing = append(missing, FieldParameters)
	}
	if signature == "" {
		missing = append(missing, FieldSignature)
	}
	if len(missing) > 0 {
		return nil, &FieldsError{Missing: missing}
	}

	result := &Verification{SignatureVersion: fields.Get(FieldSignatureVersion)}

	notification, err := DecodeNotification(parameters)
	if err != nil {
		return result, err
	}
	result.Notification = notification
	result.Order = notification.Order
	if result.Order == "" {
		return result, nil
	}

	expected, err := NewEncryptor(conf.Secret, conf.KeyPadding).Sign(parameters, result.Order)
	if err != nil {
		return result, err
	}
	result.Valid = SignaturesEqual(expected, signature)
	return result, nil
}
