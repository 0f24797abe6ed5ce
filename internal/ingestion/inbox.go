package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"LottoLedger/internal/observability"
	"LottoLedger/internal/session"
)

// inboxMessageJSON is the JSON payload received from agents.
// Field names use snake_case to match upstream producers.
type inboxMessageJSON struct {
	MessageID string `json:"message_id"`
	Agent     string `json:"agent"`
	Text      string `json:"text"`
}

// InboxMessage is a validated inbox submission.
type InboxMessage struct {
	MessageID string
	Agent     string
	Text      string
}

// DecodeInboxMessage validates the raw JSON payload. The agent falls back
// to the subject's last token when the payload omits it, so bare publishes
// to lotto.inbox.<agent> still attribute correctly.
func DecodeInboxMessage(raw RawMessage) (InboxMessage, error) {
	var j inboxMessageJSON
	if err := json.Unmarshal(raw.Data, &j); err != nil {
		return InboxMessage{}, fmt.Errorf("parse inbox message: %w", err)
	}
	if strings.TrimSpace(j.Text) == "" {
		return InboxMessage{}, errors.New("inbox message has no text")
	}

	agent := strings.TrimSpace(j.Agent)
	if agent == "" {
		if i := strings.LastIndex(raw.Subject, "."); i >= 0 {
			agent = raw.Subject[i+1:]
		}
	}
	if agent == "" {
		return InboxMessage{}, errors.New("inbox message has no agent")
	}

	return InboxMessage{
		MessageID: strings.TrimSpace(j.MessageID),
		Agent:     agent,
		Text:      j.Text,
	}, nil
}

// ProcessedRecorder persists handled message IDs for the cold dedup tier.
type ProcessedRecorder interface {
	RecordProcessed(ctx context.Context, channel, messageID, agentName string) error
}

// InboxProcessor drains the message channel, submits bets to the engine,
// and publishes confirmation replies. Malformed messages are ACKed and
// dropped: redelivery cannot fix them.
type InboxProcessor struct {
	engine   *session.Engine
	msgChan  <-chan RawMessage
	replies  *ReplyPublisher
	recorder ProcessedRecorder
	metrics  *observability.Metrics
	log      zerolog.Logger
}

func NewInboxProcessor(
	engine *session.Engine,
	msgChan <-chan RawMessage,
	replies *ReplyPublisher,
	recorder ProcessedRecorder,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *InboxProcessor {
	return &InboxProcessor{
		engine:   engine,
		msgChan:  msgChan,
		replies:  replies,
		recorder: recorder,
		metrics:  metrics,
		log:      log,
	}
}

// Run starts the processing loop. Blocks until ctx is cancelled or the
// channel closes.
func (ip *InboxProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-ip.msgChan:
			if !ok {
				return nil
			}
			ip.handle(ctx, raw)
		}
	}
}

func (ip *InboxProcessor) handle(ctx context.Context, raw RawMessage) {
	msg, err := DecodeInboxMessage(raw)
	if err != nil {
		ip.log.Warn().Err(err).Str("subject", raw.Subject).Msg("dropping malformed inbox message")
		ip.countInbox("malformed")
		raw.AckFunc()
		return
	}

	result, err := ip.engine.SubmitInbox(msg.MessageID, msg.Agent, msg.Text)
	if err != nil {
		// Unparsable text is a terminal outcome: reply, ACK, move on.
		ip.log.Warn().Err(err).Str("agent", msg.Agent).Str("message_id", msg.MessageID).
			Msg("inbox submission rejected")
		ip.countInbox("rejected")
		ip.reply(ctx, msg, Reply{
			MessageID: msg.MessageID,
			Status:    "rejected",
			Error:     err.Error(),
			Timestamp: time.Now(),
		})
		raw.AckFunc()
		return
	}

	if result.Duplicate {
		ip.countInbox("duplicate")
		if ip.metrics != nil {
			ip.metrics.InboxDuplicates.Inc()
		}
		ip.reply(ctx, msg, Reply{
			MessageID: msg.MessageID,
			Status:    "duplicate",
			Timestamp: time.Now(),
		})
		raw.AckFunc()
		return
	}

	if ip.recorder != nil && msg.MessageID != "" {
		if err := ip.recorder.RecordProcessed(ctx, "inbox", msg.MessageID, msg.Agent); err != nil {
			// The in-memory tier still covers this ID until restart.
			ip.log.Error().Err(err).Str("message_id", msg.MessageID).
				Msg("recording processed message failed")
		}
	}

	ip.log.Info().
		Str("agent", msg.Agent).
		Str("message_id", msg.MessageID).
		Int("bets", result.BetCount).
		Float64("total", result.Total).
		Msg("inbox submission accepted")
	ip.countInbox("accepted")

	ip.reply(ctx, msg, Reply{
		MessageID: msg.MessageID,
		Status:    "accepted",
		BetCount:  result.BetCount,
		Total:     result.Total,
		Timestamp: time.Now(),
	})
	raw.AckFunc()
}

func (ip *InboxProcessor) reply(ctx context.Context, msg InboxMessage, reply Reply) {
	if ip.replies == nil {
		return
	}
	if err := ip.replies.Publish(ctx, msg.Agent, reply); err != nil {
		// Non-fatal: the bets are recorded; the agent can query the API.
		ip.log.Warn().Err(err).Str("agent", msg.Agent).Msg("reply publish failed")
		if ip.metrics != nil {
			ip.metrics.ReplyErrors.Inc()
		}
		return
	}
	if ip.metrics != nil {
		ip.metrics.RepliesSent.Inc()
	}
}

func (ip *InboxProcessor) countInbox(outcome string) {
	if ip.metrics != nil {
		ip.metrics.InboxMessages.WithLabelValues(outcome).Inc()
	}
}
