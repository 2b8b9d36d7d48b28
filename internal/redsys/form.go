package redsys

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/shopspring/decimal"

	"paylink/entity"
)

const (
	// SignatureVersion identifies the MAC scheme to the gateway.
	SignatureVersion = "HMAC_SHA256_V1"

	FieldSignatureVersion = "Ds_SignatureVersion"
	FieldParameters       = "Ds_MerchantParameters"
	FieldSignature        = "Ds_Signature"

	TestURL = "https://sis-t.redsys.es:25443/sis/realizarPago"
	LiveURL = "https://sis.redsys.es/sis/realizarPago"

	DefaultCurrency        = "978"
	DefaultTransactionType = "0"
)

type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentLive Environment = "live"
)

var (
	currencyPattern        = regexp.MustCompile(`^[0-9]{3}$`)
	transactionTypePattern = regexp.MustCompile(`^[0-9A-Z]$`)
	languagePattern        = regexp.MustCompile(`^[0-9]{1,3}$`)
)

// Config is the merchant configuration every builder and verifier call takes.
type Config struct {
	Secret           string
	MerchantCode     string
	Terminal         string
	MerchantName     string
	Currency         string
	TransactionType  string
	ConsumerLanguage string
	NotificationURL  string
	SuccessURL       string
	FailureURL       string
	Environment      Environment
	KeyPadding       Padding
}

func (c Config) withDefaults() Config {
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.TransactionType == "" {
		c.TransactionType = DefaultTransactionType
	}
	if c.Environment == "" {
		c.Environment = EnvironmentTest
	}
	return c
}

// Validate reports every missing required key and every malformed one.
func (c Config) Validate() error {
	c = c.withDefaults()
	var e ConfigError

	required := []struct {
		name, value string
	}{
		{"Secret", c.Secret},
		{"MerchantCode", c.MerchantCode},
		{"Terminal", c.Terminal},
		{"MerchantName", c.MerchantName},
		{"NotificationURL", c.NotificationURL},
		{"SuccessURL", c.SuccessURL},
		{"FailureURL", c.FailureURL},
	}
	for _, r := range required {
		if r.value == "" {
			e.Missing = append(e.Missing, r.name)
		}
	}

	for _, u := range []struct{ name, value string }{
		{"NotificationURL", c.NotificationURL},
		{"SuccessURL", c.SuccessURL},
		{"FailureURL", c.FailureURL},
	} {
		if u.value != "" && !isAbsoluteURL(u.value) {
			e.Invalid = append(e.Invalid, u.name)
		}
	}
	if !currencyPattern.MatchString(c.Currency) {
		e.Invalid = append(e.Invalid, "Currency")
	}
	if !transactionTypePattern.MatchString(c.TransactionType) {
		e.Invalid = append(e.Invalid, "TransactionType")
	}
	if c.ConsumerLanguage != "" && !languagePattern.MatchString(c.ConsumerLanguage) {
		e.Invalid = append(e.Invalid, "ConsumerLanguage")
	}
	if c.Environment != EnvironmentTest && c.Environment != EnvironmentLive {
		e.Invalid = append(e.Invalid, "Environment")
	}
	if c.KeyPadding != "" && c.KeyPadding != PadLength && c.KeyPadding != PadZero {
		e.Invalid = append(e.Invalid, "KeyPadding")
	}

	if len(e.Missing) > 0 || len(e.Invalid) > 0 {
		return &e
	}
	return nil
}

// GatewayURL is chosen by Environment alone.
func (c Config) GatewayURL() string {
	if c.withDefaults().Environment == EnvironmentLive {
		return LiveURL
	}
	return TestURL
}

// PaymentOptions are the per-payment inputs of BuildPaymentForm. Free text is
// sanitized here; Amount must already be parsed.
type PaymentOptions struct {
	Amount       decimal.Decimal
	Order        string
	Description  string
	Titular      string
	SuccessURL   string
	FailureURL   string
	MerchantData string
}

// BuildPaymentForm validates the configuration and options and returns the
// gateway URL with the three hidden fields the caller renders and
// auto-submits. It performs no I/O.
func BuildPaymentForm(opts PaymentOptions, conf Config) (*entity.PaymentLink, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	order := opts.Order
	if order == "" {
		order = GenerateOrderID()
	} else if _, err := ValidateOrderID(order); err != nil {
		return nil, err
	}

	units, err := MinorUnits(opts.Amount)
	if err != nil {
		return nil, err
	}

	for _, u := range []string{opts.SuccessURL, opts.FailureURL} {
		if u != "" && !isAbsoluteURL(u) {
			return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, u)
		}
	}

	input := ParameterInput{
		Amount:             fmt.Sprintf("%d", units),
		Order:              order,
		SuccessURL:         opts.SuccessURL,
		FailureURL:         opts.FailureURL,
		Titular:            SanitizeText(opts.Titular, MaxTitularLength),
		ProductDescription: SanitizeText(opts.Description, MaxDescriptionLength),
		MerchantData:       present(opts.MerchantData),
	}
	params := BuildParameters(input, conf)

	encoded, err := Encode(params)
	if err != nil {
		return nil, err
	}
	signature, err := NewEncryptor(conf.Secret, conf.KeyPadding).Sign(encoded, order)
	if err != nil {
		return nil, fmt.Errorf("create signature: %w", err)
	}

	return &entity.PaymentLink{
		URL: conf.GatewayURL(),
		Fields: entity.PaymentRequest{
			Parameters:       encoded,
			Signature:        signature,
			SignatureVersion: SignatureVersion,
		},
		Order:      order,
		Amount:     units,
		Parameters: params,
	}, nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
