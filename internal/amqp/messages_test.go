package amqp

import (
	"testing"
	"time"
)

func TestTransactionExportMessageJSON(t *testing.T) {
	msg := NewTransactionExportMessage(42)
	if msg.ID != 42 {
		t.Fatalf("ID = %d, want 42", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Fatalf("expected a timestamp")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	back, err := TransactionExportMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.ID != msg.ID {
		t.Fatalf("round trip ID = %d, want %d", back.ID, msg.ID)
	}
	if !back.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Fatalf("round trip timestamp = %v, want %v", back.Timestamp, msg.Timestamp)
	}
}

func TestTransactionExportMessageFromJSONInvalid(t *testing.T) {
	if _, err := TransactionExportMessageFromJSON([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
