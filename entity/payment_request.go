package entity

const SignatureVersion = "HMAC_SHA256_V1"

// PaymentRequest is the signed envelope exchanged with Redsys, both as
// the outbound form fields and as the inbound notification body.
type PaymentRequest struct {
	Parameters       string `json:"Ds_MerchantParameters"`
	Signature        string `json:"Ds_Signature"`
	SignatureVersion string `json:"Ds_SignatureVersion"`
}

// RedirectForm is handed to the transport layer, which renders it as an
// auto-submitting HTML form posting to Url.
type RedirectForm struct {
	Url string `json:"url"`
	PaymentRequest
}
