package requests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainrequests "campustrades/internal/domain/requests"
	"campustrades/internal/infra/storage/memory"
)

func TestCreateAndListRequests(t *testing.T) {
	factory := memory.NewFactory()
	create := &CreateRequestHandler{UoWFactory: factory}
	list := &ListRequestsHandler{UoWFactory: factory}
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

	older, err := create.Handle(ctx, CreateRequestCommand{ViewerID: "alice", Title: "Bike pump", Now: base})
	require.NoError(t, err)
	newer, err := create.Handle(ctx, CreateRequestCommand{ViewerID: "bob", Title: "Desk chair", Now: base.Add(time.Hour)})
	require.NoError(t, err)

	page, err := list.Handle(ctx, ListRequestsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].ID)
	assert.Equal(t, older.ID, page.Items[1].ID)
}

func TestCreateRequestValidation(t *testing.T) {
	factory := memory.NewFactory()
	create := &CreateRequestHandler{UoWFactory: factory}

	_, err := create.Handle(context.Background(), CreateRequestCommand{ViewerID: "alice", Title: "  "})
	assert.ErrorIs(t, err, domainrequests.ErrTitleRequired)
}

func TestFulfillRequest(t *testing.T) {
	factory := memory.NewFactory()
	create := &CreateRequestHandler{UoWFactory: factory}
	fulfill := &FulfillRequestHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	ctx := context.Background()

	request, err := create.Handle(ctx, CreateRequestCommand{ViewerID: "alice", Title: "Bike pump"})
	require.NoError(t, err)

	_, err = fulfill.Handle(ctx, FulfillRequestCommand{ViewerID: "alice", RequestID: request.ID})
	assert.ErrorIs(t, err, domainrequests.ErrSelfFulfillment)

	fulfilled, err := fulfill.Handle(ctx, FulfillRequestCommand{ViewerID: "bob", RequestID: request.ID})
	require.NoError(t, err)
	assert.True(t, fulfilled.Fulfilled)
	assert.Equal(t, "bob", fulfilled.FulfilledBy)

	_, err = fulfill.Handle(ctx, FulfillRequestCommand{ViewerID: "carol", RequestID: request.ID})
	assert.ErrorIs(t, err, domainrequests.ErrAlreadyFulfilled)
}

func TestListOrdersOpenFirst(t *testing.T) {
	factory := memory.NewFactory()
	create := &CreateRequestHandler{UoWFactory: factory}
	fulfill := &FulfillRequestHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	list := &ListRequestsHandler{UoWFactory: factory}
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

	done, err := create.Handle(ctx, CreateRequestCommand{ViewerID: "alice", Title: "Bike pump", Now: base.Add(time.Hour)})
	require.NoError(t, err)
	open, err := create.Handle(ctx, CreateRequestCommand{ViewerID: "bob", Title: "Desk chair", Now: base})
	require.NoError(t, err)

	_, err = fulfill.Handle(ctx, FulfillRequestCommand{ViewerID: "bob", RequestID: done.ID})
	require.NoError(t, err)

	page, err := list.Handle(ctx, ListRequestsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, open.ID, page.Items[0].ID, "open requests rank above fulfilled ones")
	assert.Equal(t, done.ID, page.Items[1].ID)
}
