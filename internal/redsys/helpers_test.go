package redsys

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// testSecret is the public Redsys sandbox key.
const testSecret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

func testConfig() Config {
	return Config{
		Secret:          testSecret,
		MerchantCode:    "999008881",
		Terminal:        "1",
		MerchantName:    "Estudio Pilates",
		NotificationURL: "https://shop.example.com/api/redsys/notify",
		SuccessURL:      "https://shop.example.com/pago/ok",
		FailureURL:      "https://shop.example.com/pago/ko",
	}
}

// gatewayNotification builds the form a gateway would post back, signed with
// secret for the order in fields.
func gatewayNotification(t *testing.T, fields map[string]string, secret string) url.Values {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	parameters := base64.URLEncoding.EncodeToString(data)
	order := fields["Ds_Order"]
	if order == "" {
		order = "0000"
	}
	signature, err := Sign(parameters, order, secret)
	require.NoError(t, err)
	return url.Values{
		FieldSignatureVersion: {SignatureVersion},
		FieldParameters:       {parameters},
		FieldSignature:        {signature},
	}
}

func approvedFields(order string) map[string]string {
	return map[string]string{
		"Ds_Date":              "14%2F10%2F2026",
		"Ds_Hour":              "10%3A15",
		"Ds_Amount":            "2999",
		"Ds_Currency":          "978",
		"Ds_Order":             order,
		"Ds_MerchantCode":      "999008881",
		"Ds_Terminal":          "1",
		"Ds_Response":          "0000",
		"Ds_TransactionType":   "0",
		"Ds_SecurePayment":     "1",
		"Ds_AuthorisationCode": "123456",
		"Ds_Card_Country":      "724",
		"Ds_MerchantData":      "cart%3D42",
	}
}
