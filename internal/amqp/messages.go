package amqp

import (
	"encoding/json"
	"time"
)

// EntryCreatedMessage notifies workers that a ledger entry was written. It is
// intentionally small: the worker re-reads the entry and its owner from the
// database, so a stale message never carries stale amounts.
type EntryCreatedMessage struct {
	EntryID     int64     `json:"entryId"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	OccurredOn  string    `json:"occurredOn"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewEntryCreatedMessage(entryID, userID int64, title, kind string, amountCents int64, currency, occurredOn string) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		EntryID:     entryID,
		UserID:      userID,
		Title:       title,
		Kind:        kind,
		AmountCents: amountCents,
		Currency:    currency,
		OccurredOn:  occurredOn,
		Timestamp:   time.Now(),
	}
}

func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
