package redsys

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"paylink/entity"
)

// ParameterInput carries the per-transaction values of a payment request.
// Amount is already in minor units and Order is already validated.
type ParameterInput struct {
	Amount             string
	Order              string
	SuccessURL         string
	FailureURL         string
	Titular            entity.Optional
	ProductDescription entity.Optional
	MerchantData       entity.Optional
}

// BuildParameters merges the computed fields with the merchant configuration.
// Optional fields are carried only when present and non-empty.
func BuildParameters(in ParameterInput, conf Config) entity.MerchantParameters {
	conf = conf.withDefaults()
	params := entity.MerchantParameters{
		Amount:          in.Amount,
		Order:           in.Order,
		MerchantCode:    conf.MerchantCode,
		Currency:        conf.Currency,
		TransactionType: conf.TransactionType,
		Terminal:        conf.Terminal,
		UrlOK:           firstNonEmpty(in.SuccessURL, conf.SuccessURL),
		UrlKO:           firstNonEmpty(in.FailureURL, conf.FailureURL),
		MerchantURL:     conf.NotificationURL,
	}
	params.MerchantName = present(conf.MerchantName)
	params.ConsumerLanguage = present(conf.ConsumerLanguage)
	params.Titular = presentOptional(in.Titular)
	params.ProductDescription = presentOptional(in.ProductDescription)
	params.MerchantData = presentOptional(in.MerchantData)
	return params
}

// Encode serializes parameters to JSON and then to standard Base64.
func Encode(params entity.MerchantParameters) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return "", fmt.Errorf("encode parameters: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Decode reverses Encode. Any Base64 or JSON failure is ErrMalformedPayload.
func Decode(encoded string) (entity.MerchantParameters, error) {
	var params entity.MerchantParameters
	data, err := decodeBase64(encoded)
	if err != nil {
		return params, err
	}
	if err = json.Unmarshal(data, &params); err != nil {
		return entity.MerchantParameters{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return params, nil
}

// DecodeNotification decodes the Ds_MerchantParameters of a notification.
// Field names are matched case-insensitively and with or without the
// "Ds_" / "Ds_Merchant_" prefix.
func DecodeNotification(encoded string) (*entity.Notification, error) {
	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err = dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedPayload)
	}
	if err = dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedPayload)
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		fields[key] = scalar(value)
	}

	index := canonicalIndex(fields)
	return &entity.Notification{
		Order:             index["ORDER"],
		Response:          index["RESPONSE"],
		AuthorisationCode: index["AUTHORISATIONCODE"],
		Amount:            index["AMOUNT"],
		Currency:          index["CURRENCY"],
		TransactionType:   index["TRANSACTIONTYPE"],
		MerchantCode:      index["MERCHANTCODE"],
		Terminal:          index["TERMINAL"],
		MerchantData:      unescape(index["MERCHANTDATA"]),
		Date:              unescape(index["DATE"]),
		Hour:              unescape(index["HOUR"]),
		SecurePayment:     index["SECUREPAYMENT"],
		CardCountry:       index["CARDCOUNTRY"],
		CardBrand:         index["CARDBRAND"],
		Fields:            fields,
	}, nil
}

// decodeBase64 accepts both alphabets, padded or not; the gateway delivers
// notification parameters in the URL-safe alphabet.
func decodeBase64(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return nil, fmt.Errorf("%w: empty parameters", ErrMalformedPayload)
	}
	s = toStandardAlphabet(s)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return data, nil
}

func scalar(value any) string {
	switch v := value.(type) {
	case json.Number:
		return v.String()
	case map[string]any, []any:
		b, _ := json.Marshal(v)
		return string(b)
	}
	return cast.ToString(value)
}

// canonicalIndex maps upper-cased, prefix-free, underscore-free field names to
// values. When two spellings collide the Ds_ form wins over Ds_Merchant_,
// which wins over an unprefixed key.
func canonicalIndex(fields map[string]string) map[string]string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	index := make(map[string]string, len(fields))
	rank := make(map[string]int, len(fields))
	for _, key := range keys {
		name, r := canonicalKey(key)
		if prev, ok := rank[name]; ok && prev <= r {
			continue
		}
		index[name] = fields[key]
		rank[name] = r
	}
	return index
}

func canonicalKey(key string) (string, int) {
	k := strings.ToUpper(strings.TrimSpace(key))
	r := 2
	switch {
	case strings.HasPrefix(k, "DS_MERCHANT_"):
		k, r = strings.TrimPrefix(k, "DS_MERCHANT_"), 1
	case strings.HasPrefix(k, "DS_"):
		k, r = strings.TrimPrefix(k, "DS_"), 0
	}
	return strings.ReplaceAll(k, "_", ""), r
}

func unescape(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}

func present(s string) entity.Optional {
	if s == "" {
		return entity.Optional{}
	}
	return entity.Some(s)
}

func presentOptional(o entity.Optional) entity.Optional {
	v, ok := o.Get()
	if !ok {
		return o
	}
	return present(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
