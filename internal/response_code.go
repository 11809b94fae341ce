package internal

import (
	"redsyspay/entity"
	"strconv"
	"strings"
)

const systemErrorPrefix = "SIS"

// rejectionCodes are the denial codes listed in the Redsys documentation.
var rejectionCodes = map[string]string{
	"0101": "expired card",
	"0102": "card temporarily blocked or under suspicion of fraud",
	"0104": "operation not allowed for this card or terminal",
	"0106": "PIN attempts exceeded",
	"0116": "insufficient funds",
	"0118": "card not registered",
	"0125": "card not effective",
	"0129": "wrong security code (CVV2/CVC2)",
	"0167": "card under suspicion of fraud",
	"0172": "denied, do not repeat",
	"0173": "denied, do not repeat without updating card data",
	"0174": "denied, do not repeat before 72 hours",
	"0180": "card not supported",
	"0184": "cardholder authentication failed",
	"0190": "denied without specific reason",
	"0191": "wrong expiry date",
	"0195": "strong customer authentication required",
	"0202": "card temporarily blocked or under suspicion of fraud with withdrawal",
	"0290": "denied without specific reason",
	"9064": "wrong card number length",
	"9078": "operation type not allowed for this card",
	"9093": "card does not exist",
	"9094": "rejected by international servers",
	"9104": "merchant with secure cardholder and cardholder without secure purchase key",
	"9218": "merchant does not allow secure operations by entry",
	"9253": "card does not pass the check-digit",
	"9256": "merchant cannot perform pre-authorizations",
	"9257": "card does not allow pre-authorizations",
	"9261": "operation stopped for exceeding SIS restrictions",
	"9912": "issuer not available",
	"9915": "payment cancelled by the user",
	"9928": "pre-authorization cancellation performed by the system",
	"9929": "pre-authorization cancellation performed by the merchant",
	"9997": "another transaction with the same card is being processed",
	"9998": "operation in card data request process",
	"9999": "operation redirected to the issuer for authentication",
}

// ClassifyResponse maps a Ds_Response code to a payment outcome. It is total:
// unknown input is Pending and never Authorized.
func ClassifyResponse(code string, transactionType string) entity.PaymentOutcome {
	code = strings.TrimSpace(code)
	if code == "" {
		return entity.OutcomePending
	}
	if strings.HasPrefix(strings.ToUpper(code), systemErrorPrefix) {
		return entity.OutcomeSystemError
	}

	normalized, number, ok := numericCode(code)
	if !ok {
		return entity.OutcomePending
	}
	switch {
	case number >= 0 && number <= 99:
		if strings.TrimSpace(transactionType) == "1" {
			return entity.OutcomePreAuthorized
		}
		return entity.OutcomeAuthorized
	case number >= 900 && number <= 999:
		return entity.OutcomeAuthorized
	}
	if _, rejected := rejectionCodes[normalized]; rejected {
		return entity.OutcomeRejected
	}
	return entity.OutcomePending
}

// DescribeResponse returns a readable message for logs.
func DescribeResponse(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(strings.ToUpper(code), systemErrorPrefix) {
		return "gateway system error " + code
	}
	normalized, number, ok := numericCode(code)
	if !ok {
		return "unknown response " + code
	}
	switch {
	case number <= 99:
		return "authorized"
	case number >= 900 && number <= 999:
		return "authorized for confirmation or refund"
	}
	if description, found := rejectionCodes[normalized]; found {
		return description
	}
	return "unknown response " + code
}

// numericCode left-pads short numeric codes to four digits ("0" -> "0000").
func numericCode(code string) (string, int, bool) {
	if len(code) > 4 {
		return "", 0, false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", 0, false
		}
	}
	number, err := strconv.Atoi(code)
	if err != nil {
		return "", 0, false
	}
	return strings.Repeat("0", 4-len(code)) + code, number, true
}
