// Package requests hosts the "wanted" board: users post items they are
// looking for and sellers fulfill them, which opens a conversation with the
// fulfiller as seller.
package requests

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
	domainrequests "campustrades/internal/domain/requests"
)

const (
	createRequestKey  = "requests.create"
	listRequestsKey   = "requests.list"
	fulfillRequestKey = "requests.fulfill"
)

// CreateRequestCommand posts a new wanted item on behalf of the viewer.
type CreateRequestCommand struct {
	ViewerID    string
	Title       string
	Description string
	Now         time.Time
}

func (c CreateRequestCommand) Key() string { return createRequestKey }

type CreateRequestHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CreateRequestHandler) Handle(ctx context.Context, cmd CreateRequestCommand) (dto.ItemRequest, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ItemRequest{}, err
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	request, err := domainrequests.New(domainrequests.CreateParams{
		ID:          domainrequests.RequestID(uuid.NewString()),
		RequesterID: cmd.ViewerID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Now:         now,
	})
	if err == nil {
		err = unit.Requests().Save(ctx, request)
	}
	if err = finish(ctx, err); err != nil {
		return dto.ItemRequest{}, err
	}
	return dto.MapItemRequest(request), nil
}

// ListRequestsQuery pages through the wanted board, open requests first.
type ListRequestsQuery struct {
	Limit  int
	Offset int
}

func (q ListRequestsQuery) Key() string { return listRequestsKey }

type ListRequestsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRequestsHandler) Handle(ctx context.Context, q ListRequestsQuery) (dto.ItemRequestCollection, error) {
	empty := dto.ItemRequestCollection{Items: []dto.ItemRequest{}}

	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return empty, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	limit := q.Limit
	if limit <= 0 || limit > 60 {
		limit = 24
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := unit.Requests().List(ctx, limit, offset)
	if err != nil {
		return empty, err
	}

	items := make([]dto.ItemRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.MapItemRequest(row))
	}
	return dto.ItemRequestCollection{Items: items}, nil
}

// FulfillRequestCommand marks a wanted item as fulfilled by the viewer.
// The requester cannot fulfill their own request.
type FulfillRequestCommand struct {
	ViewerID  string
	RequestID string
	Now       time.Time
}

func (c FulfillRequestCommand) Key() string { return fulfillRequestKey }

type FulfillRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *FulfillRequestHandler) Handle(ctx context.Context, cmd FulfillRequestCommand) (dto.ItemRequest, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ItemRequest{}, err
	}

	request, err := h.fulfill(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.ItemRequest{}, err
	}
	return dto.MapItemRequest(request), nil
}

func (h *FulfillRequestHandler) fulfill(ctx context.Context, unit uow.UnitOfWork, cmd FulfillRequestCommand) (*domainrequests.ItemRequest, error) {
	request, err := unit.Requests().ByID(ctx, domainrequests.RequestID(cmd.RequestID))
	if err != nil {
		return nil, err
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if err := request.MarkFulfilled(cmd.ViewerID, now); err != nil {
		return nil, err
	}
	if err := unit.Requests().Save(ctx, request); err != nil {
		return nil, err
	}

	pending := request.PendingEvents()
	request.ClearEvents()
	encoder := h.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoder, pending); err != nil {
		return nil, err
	}
	return request, nil
}

var (
	_ commands.Handler[CreateRequestCommand, dto.ItemRequest]       = (*CreateRequestHandler)(nil)
	_ queries.Handler[ListRequestsQuery, dto.ItemRequestCollection] = (*ListRequestsHandler)(nil)
	_ commands.Handler[FulfillRequestCommand, dto.ItemRequest]      = (*FulfillRequestHandler)(nil)
)
