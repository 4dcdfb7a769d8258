package chat

import (
	"context"
	"time"
)

// ParticipantState carries one participant's per-conversation booleans. A
// conversation owns exactly two rows, one per side, so flag mutations never
// touch the counterpart.
type ParticipantState struct {
	ConversationID ConversationID
	UserID         string
	Unread         bool
	Important      bool
	UpdatedAt      time.Time
}

// Flag names the two participant booleans.
type Flag string

const (
	FlagUnread    Flag = "unread"
	FlagImportant Flag = "important"
)

// Apply sets the named flag. Unknown flags are ignored.
func (s *ParticipantState) Apply(flag Flag, value bool) {
	switch flag {
	case FlagUnread:
		s.Unread = value
	case FlagImportant:
		s.Important = value
	}
}

// Value reads the named flag.
func (s *ParticipantState) Value(flag Flag) bool {
	switch flag {
	case FlagUnread:
		return s.Unread
	case FlagImportant:
		return s.Important
	default:
		return false
	}
}

// ParticipantStateRepository persists per-participant conversation state.
//
// SetFlag is idempotent: writing the current value succeeds without effect.
// ToggleFlag flips the stored value atomically at the data layer and returns
// the new value; callers never supply a last-known value, which closes the
// stale read-modify-write race between tabs and the badge refresh.
type ParticipantStateRepository interface {
	Get(ctx context.Context, id ConversationID, userID string) (*ParticipantState, error)
	// ForUser returns the user's state rows keyed by conversation id.
	ForUser(ctx context.Context, userID string) (map[ConversationID]*ParticipantState, error)
	Save(ctx context.Context, state *ParticipantState) error
	SetFlag(ctx context.Context, id ConversationID, userID string, flag Flag, value bool) error
	ToggleFlag(ctx context.Context, id ConversationID, userID string, flag Flag) (bool, error)
	DeleteByConversation(ctx context.Context, id ConversationID) error
}
