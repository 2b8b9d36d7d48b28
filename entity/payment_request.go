package entity

// PaymentRequest is the signed payload posted to the gateway as hidden form
// fields, and the shape of an inbound notification.
type PaymentRequest struct {
	Parameters       string `json:"Ds_MerchantParameters"`
	Signature        string `json:"Ds_Signature"`
	SignatureVersion string `json:"Ds_SignatureVersion"`
}
