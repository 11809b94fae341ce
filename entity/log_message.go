package entity

import "time"

// LogMessage is a log record persisted to the store.
type LogMessage struct {
	Time     time.Time `json:"time" bson:"time"`
	Level    string    `json:"level" bson:"level"`
	Category string    `json:"category" bson:"category"`
	Text     string    `json:"text" bson:"text"`
}

func (l *LogMessage) DataType() string {
	return "log"
}

// PaymentResult is the audit record of a verified notification.
type PaymentResult struct {
	Time    time.Time         `json:"time" bson:"time"`
	Outcome PaymentOutcome    `json:"outcome" bson:"outcome"`
	Params  PaymentParameters `json:"params" bson:"params"`
}

func (p *PaymentResult) DataType() string {
	return "payment_result"
}
