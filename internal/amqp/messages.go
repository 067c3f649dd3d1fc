package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventTransactionImported  = "transaction.imported"
	EventTransactionProcessed = "transaction.processed"
)

// TransactionEvent is the message published when a bank transaction is
// imported or matched to a pot. Carries enough for a push notification
// without a database round trip.
type TransactionEvent struct {
	Kind           string    `json:"kind"`
	TransactionID  string    `json:"transactionId"`
	MerchantName   string    `json:"merchantName"`
	AmountPence    int64     `json:"amountPence"`
	PotID          *int64    `json:"potId,omitempty"`
	IsSubscription bool      `json:"isSubscription"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
