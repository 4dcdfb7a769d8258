package chat

import (
	"context"
	"log/slog"
	"time"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	"campustrades/internal/domain/shared/events"
)

const openThreadKey = "chat.open_thread"

// OpenThreadCommand loads a conversation's messages and marks it read for
// the viewer. It is a command, not a query: opening a thread clears the
// viewer's unread flag.
type OpenThreadCommand struct {
	ViewerID       string
	ConversationID string
	Now            time.Time
}

func (c OpenThreadCommand) Key() string { return openThreadKey }

type OpenThreadHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *OpenThreadHandler) Handle(ctx context.Context, cmd OpenThreadCommand) (dto.Thread, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Thread{}, err
	}
	now := nowOrDefault(cmd.Now)

	thread, err := h.open(ctx, unit, cmd, now)
	return thread, finish(ctx, err)
}

func (h *OpenThreadHandler) open(ctx context.Context, unit uow.UnitOfWork, cmd OpenThreadCommand, now time.Time) (dto.Thread, error) {
	conv, _, err := loadParticipantConversation(ctx, unit, domainchat.ConversationID(cmd.ConversationID), cmd.ViewerID)
	if err != nil {
		return dto.Thread{}, err
	}

	messages, err := unit.Messages().ListByConversation(ctx, conv.ID)
	if err != nil {
		return dto.Thread{}, err
	}

	state, err := unit.Participants().Get(ctx, conv.ID, cmd.ViewerID)
	if err != nil {
		return dto.Thread{}, err
	}

	// Clear the viewer's unread flag only; the counterpart's state is never
	// touched by opening a thread.
	if state != nil && state.Unread {
		if err := unit.Participants().SetFlag(ctx, conv.ID, cmd.ViewerID, domainchat.FlagUnread, false); err != nil {
			return dto.Thread{}, err
		}
		state.Unread = false
		read := domainchat.ConversationRead{ConversationID: conv.ID, ReaderID: cmd.ViewerID, At: now}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{read}); err != nil {
			return dto.Thread{}, err
		}
		if h.Logger != nil {
			h.Logger.Debug("conversation marked read", "conversation_id", conv.ID, "reader_id", cmd.ViewerID)
		}
	}

	rows, err := decorate(ctx, unit, cmd.ViewerID, []*domainchat.Conversation{conv})
	if err != nil {
		return dto.Thread{}, err
	}

	thread := dto.Thread{Messages: make([]dto.Message, 0, len(messages))}
	if len(rows) > 0 {
		thread.Conversation = rows[0]
	}
	for _, msg := range messages {
		thread.Messages = append(thread.Messages, dto.MapMessage(msg, now))
	}
	return thread, nil
}

func (h *OpenThreadHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[OpenThreadCommand, dto.Thread] = (*OpenThreadHandler)(nil)
