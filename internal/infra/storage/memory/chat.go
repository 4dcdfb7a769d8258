package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainchat "campustrades/internal/domain/chat"
)

// ConversationRepository is an in-memory conversation store.
type ConversationRepository struct {
	mu    sync.RWMutex
	items map[domainchat.ConversationID]*domainchat.Conversation
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		items: make(map[domainchat.ConversationID]*domainchat.Conversation),
	}
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.items[id]
	if !ok {
		return nil, domainchat.ErrConversationGone
	}
	return conv, nil
}

func (r *ConversationRepository) ByParticipant(ctx context.Context, userID string) ([]*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainchat.Conversation, 0)
	for _, conv := range r.items {
		if conv.BuyerID == userID || conv.SellerID == userID {
			matches = append(matches, conv)
		}
	}
	return matches, nil
}

func (r *ConversationRepository) ByAnchor(ctx context.Context, anchor domainchat.Anchor) (*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conv := range r.items {
		if conv.BuyerID == anchor.BuyerID &&
			conv.SellerID == anchor.SellerID &&
			conv.ProductID == anchor.ProductID &&
			conv.ItemRequestID == anchor.ItemRequestID {
			return conv, nil
		}
	}
	return nil, domainchat.ErrConversationGone
}

func (r *ConversationRepository) Save(ctx context.Context, conv *domainchat.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[conv.ID] = conv
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id domainchat.ConversationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// MessageRepository keeps threads in append order per conversation.
type MessageRepository struct {
	mu      sync.RWMutex
	threads map[domainchat.ConversationID][]*domainchat.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		threads: make(map[domainchat.ConversationID][]*domainchat.Message),
	}
}

func (r *MessageRepository) ListByConversation(ctx context.Context, id domainchat.ConversationID) ([]*domainchat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	thread := r.threads[id]
	out := make([]*domainchat.Message, len(thread))
	copy(out, thread)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MessageRepository) LastByConversation(ctx context.Context, id domainchat.ConversationID) (*domainchat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	thread := r.threads[id]
	if len(thread) == 0 {
		return nil, nil
	}
	last := thread[0]
	for _, msg := range thread[1:] {
		if !msg.CreatedAt.Before(last.CreatedAt) {
			last = msg
		}
	}
	return last, nil
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainchat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[msg.ConversationID] = append(r.threads[msg.ConversationID], msg)
	return nil
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, id domainchat.ConversationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, id)
	return nil
}

// ParticipantStateRepository stores per-user conversation flags keyed by
// (conversation, user).
type ParticipantStateRepository struct {
	mu    sync.Mutex
	items map[participantKey]*domainchat.ParticipantState
}

type participantKey struct {
	conversationID domainchat.ConversationID
	userID         string
}

func NewParticipantStateRepository() *ParticipantStateRepository {
	return &ParticipantStateRepository{
		items: make(map[participantKey]*domainchat.ParticipantState),
	}
}

func (r *ParticipantStateRepository) Get(ctx context.Context, id domainchat.ConversationID, userID string) (*domainchat.ParticipantState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.items[participantKey{id, userID}]
	if !ok {
		return nil, domainchat.ErrNotParticipant
	}
	copied := *state
	return &copied, nil
}

func (r *ParticipantStateRepository) ForUser(ctx context.Context, userID string) (map[domainchat.ConversationID]*domainchat.ParticipantState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domainchat.ConversationID]*domainchat.ParticipantState)
	for key, state := range r.items {
		if key.userID == userID {
			copied := *state
			out[key.conversationID] = &copied
		}
	}
	return out, nil
}

func (r *ParticipantStateRepository) Save(ctx context.Context, state *domainchat.ParticipantState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *state
	r.items[participantKey{state.ConversationID, state.UserID}] = &copied
	return nil
}

func (r *ParticipantStateRepository) SetFlag(ctx context.Context, id domainchat.ConversationID, userID string, flag domainchat.Flag, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.items[participantKey{id, userID}]
	if !ok {
		return domainchat.ErrNotParticipant
	}
	state.Apply(flag, value)
	state.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ParticipantStateRepository) ToggleFlag(ctx context.Context, id domainchat.ConversationID, userID string, flag domainchat.Flag) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.items[participantKey{id, userID}]
	if !ok {
		return false, domainchat.ErrNotParticipant
	}
	next := !state.Value(flag)
	state.Apply(flag, next)
	state.UpdatedAt = time.Now().UTC()
	return next, nil
}

func (r *ParticipantStateRepository) DeleteByConversation(ctx context.Context, id domainchat.ConversationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.items {
		if key.conversationID == id {
			delete(r.items, key)
		}
	}
	return nil
}
