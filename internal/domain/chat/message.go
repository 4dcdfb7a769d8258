package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrMessageIDRequired = errors.New("chat: message id is required")
	ErrSenderRequired    = errors.New("chat: sender id is required")
	ErrEmptyContent      = errors.New("chat: message content is empty")
)

type MessageID string

// Message is an immutable entry in a conversation thread.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       string
	Content        string
	CreatedAt      time.Time
}

type ComposeParams struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       string
	Content        string
	Now            time.Time
}

// Compose validates and builds a message. Content is trimmed; trimmed-empty
// content is rejected with ErrEmptyContent.
func Compose(params ComposeParams) (*Message, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrMessageIDRequired
	}
	if strings.TrimSpace(string(params.ConversationID)) == "" {
		return nil, ErrIDRequired
	}
	sender := strings.TrimSpace(params.SenderID)
	if sender == "" {
		return nil, ErrSenderRequired
	}
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		ID:             MessageID(id),
		ConversationID: params.ConversationID,
		SenderID:       sender,
		Content:        content,
		CreatedAt:      now.UTC(),
	}, nil
}

// MessageRepository persists thread messages.
type MessageRepository interface {
	// ListByConversation returns the full thread ordered by creation time
	// ascending. Threads are small in this domain, so there is no paging.
	ListByConversation(ctx context.Context, id ConversationID) ([]*Message, error)
	// LastByConversation returns the newest message, or nil when the thread
	// is empty.
	LastByConversation(ctx context.Context, id ConversationID) (*Message, error)
	Append(ctx context.Context, msg *Message) error
	DeleteByConversation(ctx context.Context, id ConversationID) error
}
