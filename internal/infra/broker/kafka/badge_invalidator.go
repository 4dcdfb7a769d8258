package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"campustrades/internal/app/unread"
)

// Dedup filters already-processed events. Backed by the Mongo inbox store.
type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// BadgeInvalidator consumes chat events and drops the affected viewer's
// cached unread count, so badges on other instances refresh before the TTL
// runs out.
type BadgeInvalidator struct {
	Counter *unread.Counter
	Dedup   Dedup
	Logger  *slog.Logger
}

type chatEventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		RecipientID string `json:"RecipientID"`
		ReaderID    string `json:"ReaderID"`
	} `json:"data"`
}

func (b *BadgeInvalidator) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope chatEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		if b.Logger != nil {
			b.Logger.Warn("dropping malformed chat event", "topic", msg.Topic, "error", err)
		}
		return nil
	}

	var viewerID string
	switch envelope.Type {
	case "chat.message_sent.v1":
		viewerID = envelope.Data.RecipientID
	case "chat.conversation_read.v1":
		viewerID = envelope.Data.ReaderID
	default:
		return nil
	}
	if viewerID == "" {
		return nil
	}

	if b.Dedup != nil {
		seen, err := b.Dedup.Seen(ctx, envelope.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	b.Counter.Invalidate(ctx, viewerID)
	return nil
}

var _ MessageHandler = (*BadgeInvalidator)(nil)
