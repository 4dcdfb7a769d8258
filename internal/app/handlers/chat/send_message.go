package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	"campustrades/internal/domain/shared/events"
)

const sendMessageKey = "chat.send_message"

// SendMessageCommand appends a message to a conversation the viewer takes
// part in. Clients may retry with the same IdempotencyKeyV to get the
// original message back instead of a duplicate.
type SendMessageCommand struct {
	ViewerID        string
	ConversationID  string
	Content         string
	Now             time.Time
	IdempotencyKeyV string
}

func (c SendMessageCommand) Key() string { return sendMessageKey }

func (c SendMessageCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SendMessageCommand) ResultPrototype() any { return &dto.Message{} }

type SendMessageHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*dto.Message, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	now := nowOrDefault(cmd.Now)

	msg, err := h.send(ctx, unit, cmd, now)
	if err = finish(ctx, err); err != nil {
		return nil, err
	}
	mapped := dto.MapMessage(msg, now)
	return &mapped, nil
}

func (h *SendMessageHandler) send(ctx context.Context, unit uow.UnitOfWork, cmd SendMessageCommand, now time.Time) (*domainchat.Message, error) {
	conv, _, err := loadParticipantConversation(ctx, unit, domainchat.ConversationID(cmd.ConversationID), cmd.ViewerID)
	if err != nil {
		return nil, err
	}

	msg, err := domainchat.Compose(domainchat.ComposeParams{
		ID:             domainchat.MessageID(uuid.NewString()),
		ConversationID: conv.ID,
		SenderID:       cmd.ViewerID,
		Content:        cmd.Content,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Messages().Append(ctx, msg); err != nil {
		return nil, err
	}

	conv.TouchLastMessage(now)
	if err := unit.Conversations().Save(ctx, conv); err != nil {
		return nil, err
	}

	// The recipient, and only the recipient, gets their unread flag raised.
	recipient, err := conv.CounterpartID(cmd.ViewerID)
	if err != nil {
		return nil, err
	}
	if err := unit.Participants().SetFlag(ctx, conv.ID, recipient, domainchat.FlagUnread, true); err != nil {
		return nil, err
	}

	sent := domainchat.MessageSent{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       cmd.ViewerID,
		RecipientID:    recipient,
		At:             now,
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{sent}); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("message sent", "conversation_id", conv.ID, "sender_id", cmd.ViewerID)
	}
	return msg, nil
}

func (h *SendMessageHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[SendMessageCommand, *dto.Message] = (*SendMessageHandler)(nil)
