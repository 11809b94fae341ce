package internal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"redsyspay/entity"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field name variants used by Redsys across versions and endpoints, in
// priority order. The first present variant wins.
var (
	orderFields           = []string{"Ds_Order", "DS_ORDER", entity.MerchantOrder, "Ds_Merchant_Order"}
	responseFields        = []string{"Ds_Response", "DS_RESPONSE"}
	transactionTypeFields = []string{"Ds_TransactionType", "DS_TRANSACTIONTYPE", entity.MerchantTransactionType, "Ds_Merchant_TransactionType"}
	amountFields          = []string{"Ds_Amount", "DS_AMOUNT", entity.MerchantAmount, "Ds_Merchant_Amount"}
	currencyFields        = []string{"Ds_Currency", "DS_CURRENCY", entity.MerchantCurrency}
	merchantCodeFields    = []string{"Ds_MerchantCode", "DS_MERCHANTCODE", entity.MerchantCode}
	terminalFields        = []string{"Ds_Terminal", "DS_TERMINAL", entity.MerchantTerminal}
	authCodeFields        = []string{"Ds_AuthorisationCode", "DS_AUTHORISATIONCODE"}
	dateFields            = []string{"Ds_Date", "DS_DATE"}
	hourFields            = []string{"Ds_Hour", "DS_HOUR"}
	securePaymentFields   = []string{"Ds_SecurePayment", "DS_SECUREPAYMENT"}
	cardCountryFields     = []string{"Ds_Card_Country", "DS_CARD_COUNTRY"}
	cardBrandFields       = []string{"Ds_Card_Brand", "DS_CARD_BRAND"}
	merchantDataFields    = []string{"Ds_MerchantData", "DS_MERCHANTDATA", entity.MerchantData}
)

const (
	amountWidth    = 12
	orderMinLength = 4
	orderMaxLength = 12
)

// EncodeParameters serializes parameters to compact JSON in insertion order
// and encodes the bytes with padded standard Base64.
func EncodeParameters(params *entity.MerchantParameters) (string, error) {
	if params == nil {
		return "", fmt.Errorf("%w: nil parameters", ErrEncoding)
	}
	for _, key := range params.Keys() {
		value, _ := params.Get(key)
		if !utf8.ValidString(key) || !utf8.ValidString(value) {
			return "", fmt.Errorf("%w: field %q is not valid UTF-8", ErrEncoding, key)
		}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeParameters reverses EncodeParameters. The gateway also sends the
// URL-safe alphabet, which is accepted.
func DecodeParameters(payload string) (*entity.MerchantParameters, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty parameters", ErrDecoding)
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecoding, err)
	}
	params := entity.NewMerchantParameters()
	if err = json.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrDecoding, err)
	}
	return params, nil
}

func decodeBase64(payload string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var err error
	for _, encoding := range encodings {
		var data []byte
		if data, err = encoding.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, err
}

// OrderNumber extracts the order number using the known field variants.
// The value is returned exactly as received since it keys the signature;
// surrounding whitespace is rejected rather than trimmed.
func OrderNumber(params *entity.MerchantParameters) (string, error) {
	order, ok := params.Lookup(orderFields...)
	if !ok || strings.TrimSpace(order) == "" {
		return "", ErrMissingOrderNumber
	}
	if strings.TrimSpace(order) != order {
		return "", fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidOrder, order)
	}
	return order, nil
}

// ReadPaymentParameters normalizes every known field into canonical names.
func ReadPaymentParameters(params *entity.MerchantParameters) entity.PaymentParameters {
	lookup := func(names []string) string {
		value, _ := params.Lookup(names...)
		return strings.TrimSpace(value)
	}
	return entity.PaymentParameters{
		Order:             lookup(orderFields),
		Response:          lookup(responseFields),
		TransactionType:   lookup(transactionTypeFields),
		Amount:            lookup(amountFields),
		Currency:          lookup(currencyFields),
		MerchantCode:      lookup(merchantCodeFields),
		Terminal:          lookup(terminalFields),
		AuthorisationCode: lookup(authCodeFields),
		Date:              unescape(lookup(dateFields)),
		Hour:              unescape(lookup(hourFields)),
		SecurePayment:     lookup(securePaymentFields),
		CardCountry:       lookup(cardCountryFields),
		CardBrand:         lookup(cardBrandFields),
		MerchantData:      unescape(lookup(merchantDataFields)),
	}
}

func unescape(value string) string {
	unescaped, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return unescaped
}

// FormatAmount renders an amount in the smallest currency unit as twelve
// zero-padded digits.
func FormatAmount(cents int64) (string, error) {
	if cents < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAmount, cents)
	}
	amount := strconv.FormatInt(cents, 10)
	if len(amount) > amountWidth {
		return "", fmt.Errorf("%w: %d exceeds %d digits", ErrInvalidAmount, cents, amountWidth)
	}
	return strings.Repeat("0", amountWidth-len(amount)) + amount, nil
}

// ValidateOrder checks the gateway limits on order numbers.
func ValidateOrder(order string) error {
	if len(order) < orderMinLength || len(order) > orderMaxLength {
		return fmt.Errorf("%w: length %d outside %d-%d", ErrInvalidOrder, len(order), orderMinLength, orderMaxLength)
	}
	for _, r := range order {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("%w: %q is not alphanumeric", ErrInvalidOrder, order)
		}
	}
	return nil
}
