package entity

// PaymentParameters is a gateway notification with its field name variants
// normalized to one canonical name each.
type PaymentParameters struct {
	Order             string `json:"order" bson:"order"`
	Response          string `json:"response" bson:"response"`
	TransactionType   string `json:"transaction_type" bson:"transaction_type"`
	Amount            string `json:"amount" bson:"amount"`
	Currency          string `json:"currency" bson:"currency"`
	MerchantCode      string `json:"merchant_code" bson:"merchant_code"`
	Terminal          string `json:"terminal" bson:"terminal"`
	AuthorisationCode string `json:"authorisation_code" bson:"authorisation_code"`
	Date              string `json:"date" bson:"date"`
	Hour              string `json:"hour" bson:"hour"`
	SecurePayment     string `json:"secure_payment" bson:"secure_payment"`
	CardCountry       string `json:"card_country" bson:"card_country"`
	CardBrand         string `json:"card_brand" bson:"card_brand"`
	MerchantData      string `json:"merchant_data" bson:"merchant_data"`
}
