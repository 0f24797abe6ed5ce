package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// ReplyPublisher publishes confirmation replies back to agents.
// Subjects follow the pattern lotto.replies.<agent>.
type ReplyPublisher struct {
	js jetstream.JetStream
}

// Reply is the confirmation sent back after an inbox message is handled.
type Reply struct {
	MessageID string    `json:"message_id"`
	Status    string    `json:"status"` // accepted, duplicate, rejected
	BetCount  int       `json:"bet_count,omitempty"`
	Total     float64   `json:"total,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReplyPublisher(js jetstream.JetStream) *ReplyPublisher {
	return &ReplyPublisher{js: js}
}

// Publish sends a reply to the agent's reply subject.
func (rp *ReplyPublisher) Publish(ctx context.Context, agent string, reply Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	subject := fmt.Sprintf("lotto.replies.%s", subjectToken(agent))
	_, err = rp.js.Publish(ctx, subject, data)
	return err
}

// subjectToken makes an agent name safe as a NATS subject token. Spaces and
// token separators collapse to underscores; an empty name maps to "unknown".
func subjectToken(agent string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '*', '>':
			return '_'
		}
		return r
	}, strings.TrimSpace(agent))
	if token == "" {
		return "unknown"
	}
	return token
}
