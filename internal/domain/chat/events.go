package chat

import "time"

type ConversationStarted struct {
	ConversationID ConversationID
	BuyerID        string
	SellerID       string
	ProductID      string
	ItemRequestID  string
	At             time.Time
}

func (e ConversationStarted) EventName() string     { return "chat.conversation_started" }
func (e ConversationStarted) AggregateID() string   { return string(e.ConversationID) }
func (e ConversationStarted) OccurredAt() time.Time { return e.At }

type MessageSent struct {
	MessageID      MessageID
	ConversationID ConversationID
	SenderID       string
	RecipientID    string
	At             time.Time
}

func (e MessageSent) EventName() string     { return "chat.message_sent" }
func (e MessageSent) AggregateID() string   { return string(e.ConversationID) }
func (e MessageSent) OccurredAt() time.Time { return e.At }

type ConversationRead struct {
	ConversationID ConversationID
	ReaderID       string
	At             time.Time
}

func (e ConversationRead) EventName() string     { return "chat.conversation_read" }
func (e ConversationRead) AggregateID() string   { return string(e.ConversationID) }
func (e ConversationRead) OccurredAt() time.Time { return e.At }

type ConversationDeleted struct {
	ConversationID ConversationID
	DeletedBy      string
	At             time.Time
}

func (e ConversationDeleted) EventName() string     { return "chat.conversation_deleted" }
func (e ConversationDeleted) AggregateID() string   { return string(e.ConversationID) }
func (e ConversationDeleted) OccurredAt() time.Time { return e.At }
