package dto

import (
	"time"

	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
)

// Profile is the public identity attached to conversations and listings.
type Profile struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Campus    string `json:"campus,omitempty"`
}

// ListingSummary is the product excerpt shown on a conversation row.
type ListingSummary struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url,omitempty"`
	Status     string `json:"status"`
}

// MessagePreview is the last-message excerpt on a conversation row.
type MessagePreview struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary is one directory row: the conversation decorated with
// the counterpart profile, the anchored listing and a last-message preview.
type ConversationSummary struct {
	ID            string          `json:"id"`
	Role          string          `json:"role"`
	Counterpart   Profile         `json:"counterpart"`
	Listing       *ListingSummary `json:"listing,omitempty"`
	ItemRequestID string          `json:"item_request_id,omitempty"`
	LastMessage   *MessagePreview `json:"last_message,omitempty"`
	LastMessageAt *time.Time      `json:"last_message_at,omitempty"`
	Unread        bool            `json:"unread"`
	Important     bool            `json:"important"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Directory is the viewer's conversation list after filtering.
type Directory struct {
	Items []ConversationSummary `json:"items"`
}

// Thread is an opened conversation: ordered messages plus the summary header.
type Thread struct {
	Conversation ConversationSummary `json:"conversation"`
	Messages     []Message           `json:"messages"`
}

// Message is a single chat message payload. TimeLabel carries the relative
// display form computed at read time.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	TimeLabel      string    `json:"time_label"`
}

// UnreadCount is the notification badge payload.
type UnreadCount struct {
	Count int `json:"count"`
}

// FlagState reports a participant flag after a set or toggle.
type FlagState struct {
	ConversationID string `json:"conversation_id"`
	Flag           string `json:"flag"`
	Value          bool   `json:"value"`
}

// MapProfile builds a DTO from a domain profile, falling back to the bare
// user id when the profile row is missing.
func MapProfile(userID string, profile *domainprofiles.Profile) Profile {
	if profile == nil {
		return Profile{UserID: userID}
	}
	return Profile{
		UserID:    profile.UserID,
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		Campus:    profile.Campus,
	}
}

// MapListingSummary builds the excerpt for a directory row.
func MapListingSummary(product *domainproducts.Product) *ListingSummary {
	if product == nil {
		return nil
	}
	return &ListingSummary{
		ProductID:  string(product.ID),
		Title:      product.Title,
		PriceCents: product.PriceCents,
		ImageURL:   product.Thumbnail(),
		Status:     string(product.Status),
	}
}

// MapMessage builds a message DTO, labelling the timestamp relative to now.
func MapMessage(msg *domainchat.Message, now time.Time) Message {
	if msg == nil {
		return Message{}
	}
	return Message{
		ID:             string(msg.ID),
		ConversationID: string(msg.ConversationID),
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
		TimeLabel:      MessageTimeLabel(msg.CreatedAt, now),
	}
}
