package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces that a transaction landed in the
// canonical store. It carries only the id; consumers fetch the full record
// from the store themselves.
type TransactionRecordedMessage struct {
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		TransactionID: id,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
