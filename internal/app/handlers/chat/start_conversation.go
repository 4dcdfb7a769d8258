package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainrequests "campustrades/internal/domain/requests"
)

const startConversationKey = "chat.start_conversation"

// StartConversationCommand begins (or resumes) a chat. For a product anchor
// the viewer is the buyer; for an item-request anchor the viewer is the
// would-be fulfiller and therefore the seller side. Exactly one anchor must
// be set. Starting a chat that already exists for the same triple returns
// the existing conversation instead of creating a duplicate.
type StartConversationCommand struct {
	ViewerID      string
	ProductID     string
	ItemRequestID string
	Now           time.Time
}

func (c StartConversationCommand) Key() string { return startConversationKey }

type StartConversationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *StartConversationHandler) Handle(ctx context.Context, cmd StartConversationCommand) (dto.ConversationSummary, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ConversationSummary{}, err
	}
	now := nowOrDefault(cmd.Now)

	summary, err := h.start(ctx, unit, cmd, now)
	if err = finish(ctx, err); err != nil {
		return dto.ConversationSummary{}, err
	}
	return summary, nil
}

func (h *StartConversationHandler) start(ctx context.Context, unit uow.UnitOfWork, cmd StartConversationCommand, now time.Time) (dto.ConversationSummary, error) {
	anchor, err := h.resolveAnchor(ctx, unit, cmd)
	if err != nil {
		return dto.ConversationSummary{}, err
	}

	conv, err := unit.Conversations().ByAnchor(ctx, anchor)
	switch {
	case err == nil:
		// Existing triple, reuse it.
	case errors.Is(err, domainchat.ErrConversationGone):
		conv, err = h.create(ctx, unit, anchor, now)
		if err != nil {
			return dto.ConversationSummary{}, err
		}
	default:
		return dto.ConversationSummary{}, err
	}

	rows, err := decorate(ctx, unit, cmd.ViewerID, []*domainchat.Conversation{conv})
	if err != nil {
		return dto.ConversationSummary{}, err
	}
	if len(rows) == 0 {
		return dto.ConversationSummary{}, domainchat.ErrNotParticipant
	}
	return rows[0], nil
}

// resolveAnchor loads the anchored entity and derives the buyer/seller pair.
func (h *StartConversationHandler) resolveAnchor(ctx context.Context, unit uow.UnitOfWork, cmd StartConversationCommand) (domainchat.Anchor, error) {
	if cmd.ProductID != "" && cmd.ItemRequestID != "" {
		return domainchat.Anchor{}, domainchat.ErrAnchorAmbiguous
	}
	if cmd.ProductID != "" {
		product, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID))
		if err != nil {
			return domainchat.Anchor{}, err
		}
		if string(product.Seller) == cmd.ViewerID {
			return domainchat.Anchor{}, domainchat.ErrSelfConversation
		}
		return domainchat.Anchor{
			BuyerID:   cmd.ViewerID,
			SellerID:  string(product.Seller),
			ProductID: cmd.ProductID,
		}, nil
	}
	if cmd.ItemRequestID != "" {
		request, err := unit.Requests().ByID(ctx, domainrequests.RequestID(cmd.ItemRequestID))
		if err != nil {
			return domainchat.Anchor{}, err
		}
		if request.RequesterID == cmd.ViewerID {
			return domainchat.Anchor{}, domainchat.ErrSelfConversation
		}
		return domainchat.Anchor{
			BuyerID:       request.RequesterID,
			SellerID:      cmd.ViewerID,
			ItemRequestID: cmd.ItemRequestID,
		}, nil
	}
	return domainchat.Anchor{}, domainchat.ErrAnchorRequired
}

func (h *StartConversationHandler) create(ctx context.Context, unit uow.UnitOfWork, anchor domainchat.Anchor, now time.Time) (*domainchat.Conversation, error) {
	conv, err := domainchat.Start(domainchat.StartParams{
		ID:            domainchat.ConversationID(uuid.NewString()),
		BuyerID:       anchor.BuyerID,
		SellerID:      anchor.SellerID,
		ProductID:     anchor.ProductID,
		ItemRequestID: anchor.ItemRequestID,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Conversations().Save(ctx, conv); err != nil {
		return nil, err
	}
	for _, participant := range []string{conv.BuyerID, conv.SellerID} {
		state := &domainchat.ParticipantState{ConversationID: conv.ID, UserID: participant, UpdatedAt: now}
		if err := unit.Participants().Save(ctx, state); err != nil {
			return nil, err
		}
	}

	pending := conv.PendingEvents()
	conv.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("conversation started", "conversation_id", conv.ID, "buyer_id", conv.BuyerID, "seller_id", conv.SellerID)
	}
	return conv, nil
}

func (h *StartConversationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[StartConversationCommand, dto.ConversationSummary] = (*StartConversationHandler)(nil)
