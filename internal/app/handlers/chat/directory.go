package chat

import (
	"context"
	"sort"

	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
)

const directoryKey = "chat.directory"

// Filter selects which directory rows are returned.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterUnread    Filter = "unread"
	FilterImportant Filter = "important"
)

// ParseFilter maps a raw query value onto a filter, defaulting to all.
func ParseFilter(raw string) Filter {
	switch Filter(raw) {
	case FilterUnread:
		return FilterUnread
	case FilterImportant:
		return FilterImportant
	default:
		return FilterAll
	}
}

// DirectoryQuery lists the viewer's conversations.
type DirectoryQuery struct {
	ViewerID string
	Filter   Filter
}

func (q DirectoryQuery) Key() string { return directoryKey }

// DirectoryHandler builds the decorated, ordered, filtered conversation list.
type DirectoryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DirectoryHandler) Handle(ctx context.Context, q DirectoryQuery) (dto.Directory, error) {
	// An absent viewer renders an empty directory, matching the logged-out
	// and still-loading states. Not an error.
	if q.ViewerID == "" {
		return dto.Directory{Items: []dto.ConversationSummary{}}, nil
	}

	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Directory{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	conversations, err := unit.Conversations().ByParticipant(ctx, q.ViewerID)
	if err != nil {
		return dto.Directory{}, err
	}

	rows, err := decorate(ctx, unit, q.ViewerID, conversations)
	if err != nil {
		return dto.Directory{}, err
	}

	// Newest activity first; conversations without any message sort after
	// every conversation that has one.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.LastMessageAt == nil {
			if b.LastMessageAt != nil {
				return false
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if b.LastMessageAt == nil {
			return true
		}
		return a.LastMessageAt.After(*b.LastMessageAt)
	})

	filtered := rows[:0]
	for _, row := range rows {
		switch q.Filter {
		case FilterUnread:
			if !row.Unread {
				continue
			}
		case FilterImportant:
			if !row.Important {
				continue
			}
		}
		filtered = append(filtered, row)
	}

	return dto.Directory{Items: filtered}, nil
}

var _ queries.Handler[DirectoryQuery, dto.Directory] = (*DirectoryHandler)(nil)
