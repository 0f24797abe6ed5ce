package ingestion_test

import (
	"encoding/json"
	"testing"
	"time"

	"LottoLedger/internal/ingestion"
)

func rawFromJSON(t *testing.T, subject string, v interface{}) ingestion.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return ingestion.RawMessage{
		Subject:   subject,
		Data:      data,
		Timestamp: time.Now(),
		AckFunc:   func() {},
		NakFunc:   func() {},
	}
}

func TestDecodeInboxMessage(t *testing.T) {
	raw := rawFromJSON(t, "lotto.inbox.AgentA", map[string]interface{}{
		"message_id": "msg-001",
		"agent":      "Agent A",
		"text":       "12 500\n34 1000",
	})

	msg, err := ingestion.DecodeInboxMessage(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.MessageID != "msg-001" {
		t.Errorf("message id = %q", msg.MessageID)
	}
	if msg.Agent != "Agent A" {
		t.Errorf("agent = %q", msg.Agent)
	}
	if msg.Text != "12 500\n34 1000" {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestDecodeInboxMessage_AgentFromSubject(t *testing.T) {
	raw := rawFromJSON(t, "lotto.inbox.AgentB", map[string]interface{}{
		"message_id": "msg-002",
		"text":       "12 500",
	})

	msg, err := ingestion.DecodeInboxMessage(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Agent != "AgentB" {
		t.Errorf("agent = %q, want AgentB from subject", msg.Agent)
	}
}

func TestDecodeInboxMessage_EmptyText(t *testing.T) {
	raw := rawFromJSON(t, "lotto.inbox.AgentA", map[string]interface{}{
		"message_id": "msg-003",
		"agent":      "Agent A",
		"text":       "   ",
	})

	if _, err := ingestion.DecodeInboxMessage(raw); err == nil {
		t.Fatal("expected error for blank text")
	}
}

func TestDecodeInboxMessage_BadJSON(t *testing.T) {
	raw := ingestion.RawMessage{
		Subject: "lotto.inbox.AgentA",
		Data:    []byte("not json"),
	}
	if _, err := ingestion.DecodeInboxMessage(raw); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
