package redsys

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paylink/entity"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []entity.MerchantParameters{
		BuildParameters(ParameterInput{Amount: "1990", Order: "1234"}, testConfig()),
		BuildParameters(ParameterInput{
			Amount:             "2999",
			Order:              "202610141200",
			SuccessURL:         "https://shop.example.com/ok?ref=a&b=c",
			Titular:            entity.Some("Ana María"),
			ProductDescription: entity.Some("Bono <10> sesiones"),
			MerchantData:       entity.Some(`{"cart":42}`),
		}, testConfig()),
		{Amount: "1", Order: "0000", MerchantData: entity.Some("")},
	}
	for _, params := range cases {
		encoded, err := Encode(params)
		require.NoError(t, err)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)
	}
}

func TestEncode_FieldOrderAndOmission(t *testing.T) {
	params := BuildParameters(ParameterInput{Amount: "1990", Order: "1234"}, testConfig())
	encoded, err := Encode(params)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, `{"DS_MERCHANT_AMOUNT":"1990","DS_MERCHANT_ORDER":"1234",`+
		`"DS_MERCHANT_MERCHANTCODE":"999008881","DS_MERCHANT_CURRENCY":"978",`+
		`"DS_MERCHANT_TRANSACTIONTYPE":"0","DS_MERCHANT_TERMINAL":"1",`+
		`"DS_MERCHANT_URLOK":"https://shop.example.com/pago/ok",`+
		`"DS_MERCHANT_URLKO":"https://shop.example.com/pago/ko",`+
		`"DS_MERCHANT_MERCHANTURL":"https://shop.example.com/api/redsys/notify",`+
		`"DS_MERCHANT_MERCHANTNAME":"Estudio Pilates"}`, string(raw))
	assert.NotContains(t, string(raw), "TITULAR")
	assert.NotContains(t, string(raw), "PRODUCTDESCRIPTION")
}

func TestEncode_Deterministic(t *testing.T) {
	params := BuildParameters(ParameterInput{Amount: "1990", Order: "1234", Titular: entity.Some("Ana")}, testConfig())
	first, err := Encode(params)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(params)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildParameters_OverridesAndEmptyOptionals(t *testing.T) {
	conf := testConfig()
	conf.ConsumerLanguage = "002"
	params := BuildParameters(ParameterInput{
		Amount:             "500",
		Order:              "1234",
		SuccessURL:         "https://other.example.com/ok",
		Titular:            entity.Some(""),
		ProductDescription: entity.Optional{},
	}, conf)

	assert.Equal(t, "https://other.example.com/ok", params.UrlOK)
	assert.Equal(t, conf.FailureURL, params.UrlKO)
	assert.Equal(t, "978", params.Currency)
	assert.Equal(t, "0", params.TransactionType)
	assert.Equal(t, entity.Some("002"), params.ConsumerLanguage)
	assert.False(t, params.Titular.IsPresent())
	assert.False(t, params.ProductDescription.IsPresent())
}

func TestDecode_Malformed(t *testing.T) {
	for _, s := range []string{"", "!!!", "bm90IGpzb24=", base64.StdEncoding.EncodeToString([]byte(`{"DS_MERCHANT_AMOUNT":1990}`))} {
		_, err := Decode(s)
		assert.ErrorIs(t, err, ErrMalformedPayload, s)
	}
}

func TestDecodeNotification_TrailingData(t *testing.T) {
	for _, payload := range []string{
		`{"Ds_Order":"1234"} trailing junk`,
		`{"Ds_Order":"1234"}{"Ds_Order":"5678"}`,
	} {
		_, err := DecodeNotification(base64.URLEncoding.EncodeToString([]byte(payload)))
		assert.ErrorIs(t, err, ErrMalformedPayload, payload)

		_, err = Decode(base64.URLEncoding.EncodeToString([]byte(payload)))
		assert.ErrorIs(t, err, ErrMalformedPayload, payload)
	}

	n, err := DecodeNotification(base64.URLEncoding.EncodeToString([]byte("{\"Ds_Order\":\"1234\"}\n")))
	require.NoError(t, err)
	assert.Equal(t, "1234", n.Order)
}

func TestDecodeNotification(t *testing.T) {
	form := gatewayNotification(t, approvedFields("202610141200"), testSecret)

	n, err := DecodeNotification(form.Get(FieldParameters))
	require.NoError(t, err)
	assert.Equal(t, "202610141200", n.Order)
	assert.Equal(t, "0000", n.Response)
	assert.Equal(t, "123456", n.AuthorisationCode)
	assert.Equal(t, "2999", n.Amount)
	assert.Equal(t, "978", n.Currency)
	assert.Equal(t, "999008881", n.MerchantCode)
	assert.Equal(t, "14/10/2026", n.Date)
	assert.Equal(t, "10:15", n.Hour)
	assert.Equal(t, "724", n.CardCountry)
	assert.Equal(t, "cart=42", n.MerchantData)
	assert.Equal(t, "14%2F10%2F2026", n.Fields["Ds_Date"])
	assert.True(t, n.Authorized())
}

func TestDecodeNotification_OrderSpellings(t *testing.T) {
	for _, key := range []string{"Ds_Order", "DS_ORDER", "DS_MERCHANT_ORDER", "Ds_Merchant_Order", "ds_order"} {
		raw := `{"` + key + `":"1234","Ds_Amount":1990}`
		n, err := DecodeNotification(base64.StdEncoding.EncodeToString([]byte(raw)))
		require.NoError(t, err, key)
		assert.Equal(t, "1234", n.Order, key)
		assert.Equal(t, "1990", n.Amount, key)
	}
}

func TestDecodeNotification_DsSpellingWins(t *testing.T) {
	raw := `{"DS_MERCHANT_ORDER":"9999","Ds_Order":"1234"}`
	n, err := DecodeNotification(base64.StdEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)
	assert.Equal(t, "1234", n.Order)
}

func TestDecodeNotification_Malformed(t *testing.T) {
	for _, s := range []string{"", "%%%", "bnVsbA==", "WzFd", "bm90IGpzb24="} {
		_, err := DecodeNotification(s)
		assert.ErrorIs(t, err, ErrMalformedPayload, s)
	}
}
