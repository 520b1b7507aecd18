package amqp

import (
	"encoding/json"
	"time"
)

// PostingEvent announces one committed ledger posting. Subscribers fetch the
// full row themselves; the event carries only identity and kind.
type PostingEvent struct {
	TransactionID int64     `json:"transaction_id"`
	Kind          string    `json:"kind"`
	AccountID     int64     `json:"account_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewPostingEvent builds an event for a committed posting.
func NewPostingEvent(transactionID, accountID int64, kind string) *PostingEvent {
	return &PostingEvent{
		TransactionID: transactionID,
		Kind:          kind,
		AccountID:     accountID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *PostingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PostingEventFromJSON decodes an event from JSON bytes.
func PostingEventFromJSON(data []byte) (*PostingEvent, error) {
	var e PostingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
