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

const (
	setFlagKey            = "chat.set_flag"
	toggleFlagKey         = "chat.toggle_flag"
	deleteConversationKey = "chat.delete_conversation"
)

// SetFlagCommand writes one of the viewer's conversation flags to an exact
// value. Writing the current value is a no-op success.
type SetFlagCommand struct {
	ViewerID       string
	ConversationID string
	Flag           domainchat.Flag
	Value          bool
}

func (c SetFlagCommand) Key() string { return setFlagKey }

// ToggleFlagCommand flips one of the viewer's conversation flags atomically
// at the data layer. Callers never pass a last-known value.
type ToggleFlagCommand struct {
	ViewerID       string
	ConversationID string
	Flag           domainchat.Flag
}

func (c ToggleFlagCommand) Key() string { return toggleFlagKey }

// DeleteConversationCommand permanently removes a conversation with its
// messages and both participants' state. Irreversible.
type DeleteConversationCommand struct {
	ViewerID       string
	ConversationID string
	Now            time.Time
}

func (c DeleteConversationCommand) Key() string { return deleteConversationKey }

// FlagsHandler serves the three flag-related commands.
type FlagsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *FlagsHandler) HandleSet(ctx context.Context, cmd SetFlagCommand) (dto.FlagState, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.FlagState{}, err
	}

	state, err := h.set(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.FlagState{}, err
	}
	return state, nil
}

func (h *FlagsHandler) set(ctx context.Context, unit uow.UnitOfWork, cmd SetFlagCommand) (dto.FlagState, error) {
	conv, _, err := loadParticipantConversation(ctx, unit, domainchat.ConversationID(cmd.ConversationID), cmd.ViewerID)
	if err != nil {
		return dto.FlagState{}, err
	}
	if err := unit.Participants().SetFlag(ctx, conv.ID, cmd.ViewerID, cmd.Flag, cmd.Value); err != nil {
		return dto.FlagState{}, err
	}
	return dto.FlagState{ConversationID: string(conv.ID), Flag: string(cmd.Flag), Value: cmd.Value}, nil
}

func (h *FlagsHandler) HandleToggle(ctx context.Context, cmd ToggleFlagCommand) (dto.FlagState, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.FlagState{}, err
	}

	state, err := h.toggle(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.FlagState{}, err
	}
	return state, nil
}

func (h *FlagsHandler) toggle(ctx context.Context, unit uow.UnitOfWork, cmd ToggleFlagCommand) (dto.FlagState, error) {
	conv, _, err := loadParticipantConversation(ctx, unit, domainchat.ConversationID(cmd.ConversationID), cmd.ViewerID)
	if err != nil {
		return dto.FlagState{}, err
	}
	value, err := unit.Participants().ToggleFlag(ctx, conv.ID, cmd.ViewerID, cmd.Flag)
	if err != nil {
		return dto.FlagState{}, err
	}
	return dto.FlagState{ConversationID: string(conv.ID), Flag: string(cmd.Flag), Value: value}, nil
}

func (h *FlagsHandler) HandleDelete(ctx context.Context, cmd DeleteConversationCommand) (struct{}, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}

	err = h.delete(ctx, unit, cmd)
	return struct{}{}, finish(ctx, err)
}

func (h *FlagsHandler) delete(ctx context.Context, unit uow.UnitOfWork, cmd DeleteConversationCommand) error {
	conv, _, err := loadParticipantConversation(ctx, unit, domainchat.ConversationID(cmd.ConversationID), cmd.ViewerID)
	if err != nil {
		return err
	}
	if err := unit.Messages().DeleteByConversation(ctx, conv.ID); err != nil {
		return err
	}
	if err := unit.Participants().DeleteByConversation(ctx, conv.ID); err != nil {
		return err
	}
	if err := unit.Conversations().Delete(ctx, conv.ID); err != nil {
		return err
	}

	deleted := domainchat.ConversationDeleted{ConversationID: conv.ID, DeletedBy: cmd.ViewerID, At: nowOrDefault(cmd.Now)}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{deleted}); err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("conversation deleted", "conversation_id", conv.ID, "deleted_by", cmd.ViewerID)
	}
	return nil
}

func (h *FlagsHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var (
	_ commands.Handler[SetFlagCommand, dto.FlagState]       = commands.HandlerFunc[SetFlagCommand, dto.FlagState]((&FlagsHandler{}).HandleSet)
	_ commands.Handler[ToggleFlagCommand, dto.FlagState]    = commands.HandlerFunc[ToggleFlagCommand, dto.FlagState]((&FlagsHandler{}).HandleToggle)
	_ commands.Handler[DeleteConversationCommand, struct{}] = commands.HandlerFunc[DeleteConversationCommand, struct{}]((&FlagsHandler{}).HandleDelete)
)
