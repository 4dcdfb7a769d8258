package chat

import (
	"context"

	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
)

const unreadCountKey = "chat.unread_count"

// UnreadCountQuery computes the badge count: conversations in the viewer's
// full directory whose viewer-side unread flag is raised. The directory
// filter never affects this number.
type UnreadCountQuery struct {
	ViewerID string
}

func (q UnreadCountQuery) Key() string { return unreadCountKey }

type UnreadCountHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnreadCountHandler) Handle(ctx context.Context, q UnreadCountQuery) (dto.UnreadCount, error) {
	if q.ViewerID == "" {
		return dto.UnreadCount{}, nil
	}

	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	conversations, err := unit.Conversations().ByParticipant(ctx, q.ViewerID)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	states, err := unit.Participants().ForUser(ctx, q.ViewerID)
	if err != nil {
		return dto.UnreadCount{}, err
	}

	count := 0
	for _, conv := range conversations {
		if state, ok := states[conv.ID]; ok && state.Unread {
			count++
		}
	}
	return dto.UnreadCount{Count: count}, nil
}

var _ queries.Handler[UnreadCountQuery, dto.UnreadCount] = (*UnreadCountHandler)(nil)
