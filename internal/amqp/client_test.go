package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestEntryCreatedMessageJSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &EntryCreatedMessage{
		EntryID:     12345,
		UserID:      7,
		Title:       "Rent",
		Kind:        "expense",
		AmountCents: 120000,
		Currency:    "USD",
		OccurredOn:  "2024-01-01",
		Timestamp:   timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := EntryCreatedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("EntryCreatedMessageFromJSON() error = %v", err)
	}

	if parsed.EntryID != msg.EntryID {
		t.Errorf("EntryID = %v, want %v", parsed.EntryID, msg.EntryID)
	}
	if parsed.UserID != msg.UserID {
		t.Errorf("UserID = %v, want %v", parsed.UserID, msg.UserID)
	}
	if parsed.AmountCents != msg.AmountCents {
		t.Errorf("AmountCents = %v, want %v", parsed.AmountCents, msg.AmountCents)
	}
	if parsed.OccurredOn != msg.OccurredOn {
		t.Errorf("OccurredOn = %v, want %v", parsed.OccurredOn, msg.OccurredOn)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestEntryCreatedMessageInvalidJSON(t *testing.T) {
	if _, err := EntryCreatedMessageFromJSON([]byte(`{"entryId": "nope"}`)); err == nil {
		t.Error("EntryCreatedMessageFromJSON() should fail with invalid JSON")
	}
}
