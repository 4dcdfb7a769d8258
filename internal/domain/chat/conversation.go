package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"campustrades/internal/domain/shared/events"
)

var (
	ErrIDRequired        = errors.New("chat: conversation id is required")
	ErrBuyerRequired     = errors.New("chat: buyer id is required")
	ErrSellerRequired    = errors.New("chat: seller id is required")
	ErrSelfConversation  = errors.New("chat: buyer and seller must differ")
	ErrAnchorRequired    = errors.New("chat: conversation must reference a product or an item request")
	ErrAnchorAmbiguous   = errors.New("chat: conversation cannot reference both a product and an item request")
	ErrNotParticipant    = errors.New("chat: user is not a conversation participant")
	ErrConversationGone  = errors.New("chat: conversation not found")
)

type ConversationID string

// Role distinguishes the two sides of a conversation.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Conversation is a chat between a buyer and a seller, anchored to exactly
// one of a product listing or an item request. Per-participant read state
// lives in ParticipantState, not here.
type Conversation struct {
	ID            ConversationID
	BuyerID       string
	SellerID      string
	ProductID     string
	ItemRequestID string
	LastMessageAt time.Time
	CreatedAt     time.Time
	events.EventRecorder
}

type StartParams struct {
	ID            ConversationID
	BuyerID       string
	SellerID      string
	ProductID     string
	ItemRequestID string
	Now           time.Time
}

// Start creates a new conversation, enforcing the single-anchor invariant.
func Start(params StartParams) (*Conversation, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	buyer := strings.TrimSpace(params.BuyerID)
	if buyer == "" {
		return nil, ErrBuyerRequired
	}
	seller := strings.TrimSpace(params.SellerID)
	if seller == "" {
		return nil, ErrSellerRequired
	}
	if buyer == seller {
		return nil, ErrSelfConversation
	}
	product := strings.TrimSpace(params.ProductID)
	request := strings.TrimSpace(params.ItemRequestID)
	if product == "" && request == "" {
		return nil, ErrAnchorRequired
	}
	if product != "" && request != "" {
		return nil, ErrAnchorAmbiguous
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	conv := &Conversation{
		ID:            ConversationID(id),
		BuyerID:       buyer,
		SellerID:      seller,
		ProductID:     product,
		ItemRequestID: request,
		CreatedAt:     now,
	}
	conv.Record(ConversationStarted{
		ConversationID: conv.ID,
		BuyerID:        buyer,
		SellerID:       seller,
		ProductID:      product,
		ItemRequestID:  request,
		At:             now,
	})
	return conv, nil
}

// RoleOf reports which side of the conversation the given user is on.
func (c *Conversation) RoleOf(userID string) (Role, bool) {
	switch userID {
	case "":
		return "", false
	case c.BuyerID:
		return RoleBuyer, true
	case c.SellerID:
		return RoleSeller, true
	}
	return "", false
}

// CounterpartID returns the other participant's id.
func (c *Conversation) CounterpartID(userID string) (string, error) {
	role, ok := c.RoleOf(userID)
	if !ok {
		return "", ErrNotParticipant
	}
	if role == RoleBuyer {
		return c.SellerID, nil
	}
	return c.BuyerID, nil
}

// HasMessages reports whether at least one message has been recorded.
func (c *Conversation) HasMessages() bool {
	return !c.LastMessageAt.IsZero()
}

// TouchLastMessage advances the last-message timestamp. Timestamps never move
// backwards, so out-of-order delivery cannot regress the directory ordering.
func (c *Conversation) TouchLastMessage(at time.Time) {
	at = at.UTC()
	if at.After(c.LastMessageAt) {
		c.LastMessageAt = at
	}
}

// Anchor identifies the buyer/seller/reference triple used for conversation
// deduplication.
type Anchor struct {
	BuyerID       string
	SellerID      string
	ProductID     string
	ItemRequestID string
}

// ConversationRepository is the persistence port for conversations.
type ConversationRepository interface {
	ByID(ctx context.Context, id ConversationID) (*Conversation, error)
	// ByParticipant returns every conversation the user takes part in, either
	// side, without ordering guarantees.
	ByParticipant(ctx context.Context, userID string) ([]*Conversation, error)
	// ByAnchor locates an existing conversation for the exact triple, used to
	// deduplicate contact attempts. Returns ErrConversationGone when absent.
	ByAnchor(ctx context.Context, anchor Anchor) (*Conversation, error)
	Save(ctx context.Context, conv *Conversation) error
	// Delete removes the conversation row only; callers cascade messages and
	// participant state through their own repositories.
	Delete(ctx context.Context, id ConversationID) error
}
