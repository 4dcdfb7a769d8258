package chat

import (
	"context"
	"errors"
	"time"

	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
)

// decorate enriches raw conversations with the viewer's flags, counterpart
// profiles, listing summaries and last-message previews. Conversations the
// viewer does not take part in are skipped rather than failing the batch.
func decorate(ctx context.Context, unit uow.UnitOfWork, viewerID string, conversations []*domainchat.Conversation) ([]dto.ConversationSummary, error) {
	if len(conversations) == 0 {
		return []dto.ConversationSummary{}, nil
	}

	states, err := unit.Participants().ForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]domainproducts.ProductID, 0, len(conversations))
	counterpartIDs := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		if conv.ProductID != "" {
			productIDs = append(productIDs, domainproducts.ProductID(conv.ProductID))
		}
		if counterpart, err := conv.CounterpartID(viewerID); err == nil {
			counterpartIDs = append(counterpartIDs, counterpart)
		}
	}

	productsByID, err := unit.Products().ByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	profilesByID, err := unit.Profiles().ByUserIDs(ctx, counterpartIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		row, err := summarize(ctx, unit, viewerID, conv, states[conv.ID], productsByID, profilesByID)
		if err != nil {
			if errors.Is(err, domainchat.ErrNotParticipant) {
				continue
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func summarize(
	ctx context.Context,
	unit uow.UnitOfWork,
	viewerID string,
	conv *domainchat.Conversation,
	state *domainchat.ParticipantState,
	productsByID map[domainproducts.ProductID]*domainproducts.Product,
	profilesByID map[string]*domainprofiles.Profile,
) (dto.ConversationSummary, error) {
	role, ok := conv.RoleOf(viewerID)
	if !ok {
		return dto.ConversationSummary{}, domainchat.ErrNotParticipant
	}
	counterpart, err := conv.CounterpartID(viewerID)
	if err != nil {
		return dto.ConversationSummary{}, err
	}

	row := dto.ConversationSummary{
		ID:            string(conv.ID),
		Role:          string(role),
		Counterpart:   dto.MapProfile(counterpart, profilesByID[counterpart]),
		ItemRequestID: conv.ItemRequestID,
		CreatedAt:     conv.CreatedAt,
	}
	if conv.ProductID != "" {
		row.Listing = dto.MapListingSummary(productsByID[domainproducts.ProductID(conv.ProductID)])
	}
	if state != nil {
		row.Unread = state.Unread
		row.Important = state.Important
	}
	if conv.HasMessages() {
		at := conv.LastMessageAt
		row.LastMessageAt = &at
		last, err := unit.Messages().LastByConversation(ctx, conv.ID)
		if err != nil {
			return dto.ConversationSummary{}, err
		}
		if last != nil {
			row.LastMessage = &dto.MessagePreview{
				Content:   last.Content,
				SenderID:  last.SenderID,
				CreatedAt: last.CreatedAt,
			}
		}
	}
	return row, nil
}

// loadParticipantConversation fetches a conversation and verifies membership.
func loadParticipantConversation(ctx context.Context, unit uow.UnitOfWork, id domainchat.ConversationID, viewerID string) (*domainchat.Conversation, domainchat.Role, error) {
	conv, err := unit.Conversations().ByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	role, ok := conv.RoleOf(viewerID)
	if !ok {
		return nil, "", domainchat.ErrNotParticipant
	}
	return conv, role, nil
}

func nowOrDefault(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func beginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(context.Context, error) error, error) {
	return handlersupport.BeginUnit(ctx, factory)
}
