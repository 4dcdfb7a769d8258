package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	"campustrades/internal/app/middleware"
	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	"campustrades/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	start   *StartConversationHandler
	send    *SendMessageHandler
	open    *OpenThreadHandler
	flags   *FlagsHandler
	dir     *DirectoryHandler
	count   *UnreadCountHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	factory := memory.NewFactory()
	return &fixture{
		factory: factory,
		start:   &StartConversationHandler{UoWFactory: factory, Outbox: memory.NewOutbox()},
		send:    &SendMessageHandler{UoWFactory: factory, Outbox: memory.NewOutbox()},
		open:    &OpenThreadHandler{UoWFactory: factory, Outbox: memory.NewOutbox()},
		flags:   &FlagsHandler{UoWFactory: factory, Outbox: memory.NewOutbox()},
		dir:     &DirectoryHandler{UoWFactory: factory},
		count:   &UnreadCountHandler{UoWFactory: factory},
	}
}

func (f *fixture) seedProduct(t *testing.T, id, seller string) {
	t.Helper()
	product, err := domainproducts.New(domainproducts.CreateParams{
		ID:         domainproducts.ProductID(id),
		Seller:     domainproducts.SellerID(seller),
		Title:      "Calculus textbook",
		Category:   "books",
		PriceCents: 2500,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.ProductRepo.Save(context.Background(), product))
}

func (f *fixture) startConversation(t *testing.T, viewer, productID string) string {
	t.Helper()
	summary, err := f.start.Handle(context.Background(), StartConversationCommand{
		ViewerID:  viewer,
		ProductID: productID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.ID)
	return summary.ID
}

func TestStartConversationDeduplicatesAnchor(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")

	first := f.startConversation(t, "buyer", "p1")
	second := f.startConversation(t, "buyer", "p1")

	assert.Equal(t, first, second)

	conversations, err := f.factory.ConversationRepo.ByParticipant(context.Background(), "buyer")
	require.NoError(t, err)
	assert.Len(t, conversations, 1)
}

func TestStartConversationRejectsSelfContact(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")

	_, err := f.start.Handle(context.Background(), StartConversationCommand{
		ViewerID:  "seller",
		ProductID: "p1",
	})
	assert.ErrorIs(t, err, domainchat.ErrSelfConversation)
}

func TestStartConversationAnchorValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.start.Handle(context.Background(), StartConversationCommand{ViewerID: "buyer"})
	assert.ErrorIs(t, err, domainchat.ErrAnchorRequired)

	_, err = f.start.Handle(context.Background(), StartConversationCommand{
		ViewerID:      "buyer",
		ProductID:     "p1",
		ItemRequestID: "r1",
	})
	assert.ErrorIs(t, err, domainchat.ErrAnchorAmbiguous)
}

func TestSendMessageRaisesRecipientUnreadOnly(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")
	ctx := context.Background()

	msg, err := f.send.Handle(ctx, SendMessageCommand{
		ViewerID:       "buyer",
		ConversationID: convID,
		Content:        "  still available?  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "still available?", msg.Content)

	sellerState, err := f.factory.ParticipantRepo.Get(ctx, domainchat.ConversationID(convID), "seller")
	require.NoError(t, err)
	assert.True(t, sellerState.Unread)

	buyerState, err := f.factory.ParticipantRepo.Get(ctx, domainchat.ConversationID(convID), "buyer")
	require.NoError(t, err)
	assert.False(t, buyerState.Unread)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")

	_, err := f.send.Handle(context.Background(), SendMessageCommand{
		ViewerID:       "buyer",
		ConversationID: convID,
		Content:        "   ",
	})
	assert.ErrorIs(t, err, domainchat.ErrEmptyContent)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")

	_, err := f.send.Handle(context.Background(), SendMessageCommand{
		ViewerID:       "stranger",
		ConversationID: convID,
		Content:        "hi",
	})
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)
}

func TestOpenThreadClearsOnlyViewerUnread(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")
	ctx := context.Background()

	_, err := f.send.Handle(ctx, SendMessageCommand{ViewerID: "buyer", ConversationID: convID, Content: "hello"})
	require.NoError(t, err)
	_, err = f.send.Handle(ctx, SendMessageCommand{ViewerID: "seller", ConversationID: convID, Content: "hey"})
	require.NoError(t, err)

	thread, err := f.open.Handle(ctx, OpenThreadCommand{ViewerID: "buyer", ConversationID: convID})
	require.NoError(t, err)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "hello", thread.Messages[0].Content)
	assert.False(t, thread.Conversation.Unread)

	buyerState, err := f.factory.ParticipantRepo.Get(ctx, domainchat.ConversationID(convID), "buyer")
	require.NoError(t, err)
	assert.False(t, buyerState.Unread)

	sellerState, err := f.factory.ParticipantRepo.Get(ctx, domainchat.ConversationID(convID), "seller")
	require.NoError(t, err)
	assert.True(t, sellerState.Unread, "seller's unread state must survive the buyer opening the thread")
}

func TestSetFlagIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		state, err := f.flags.HandleSet(ctx, SetFlagCommand{
			ViewerID:       "buyer",
			ConversationID: convID,
			Flag:           domainchat.FlagImportant,
			Value:          true,
		})
		require.NoError(t, err)
		assert.True(t, state.Value)
	}

	stored, err := f.factory.ParticipantRepo.Get(ctx, domainchat.ConversationID(convID), "buyer")
	require.NoError(t, err)
	assert.True(t, stored.Important)
}

func TestToggleFlagReturnsNewValue(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")
	ctx := context.Background()

	state, err := f.flags.HandleToggle(ctx, ToggleFlagCommand{
		ViewerID:       "buyer",
		ConversationID: convID,
		Flag:           domainchat.FlagUnread,
	})
	require.NoError(t, err)
	assert.True(t, state.Value)

	state, err = f.flags.HandleToggle(ctx, ToggleFlagCommand{
		ViewerID:       "buyer",
		ConversationID: convID,
		Flag:           domainchat.FlagUnread,
	})
	require.NoError(t, err)
	assert.False(t, state.Value)
}

func TestFlagsRejectNonParticipant(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")

	_, err := f.flags.HandleSet(context.Background(), SetFlagCommand{
		ViewerID:       "stranger",
		ConversationID: convID,
		Flag:           domainchat.FlagUnread,
		Value:          true,
	})
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)
}

func TestDeleteConversationCascades(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")
	ctx := context.Background()

	_, err := f.send.Handle(ctx, SendMessageCommand{ViewerID: "buyer", ConversationID: convID, Content: "hello"})
	require.NoError(t, err)

	_, err = f.flags.HandleDelete(ctx, DeleteConversationCommand{ViewerID: "buyer", ConversationID: convID})
	require.NoError(t, err)

	_, err = f.factory.ConversationRepo.ByID(ctx, domainchat.ConversationID(convID))
	assert.ErrorIs(t, err, domainchat.ErrConversationGone)

	messages, err := f.factory.MessageRepo.ListByConversation(ctx, domainchat.ConversationID(convID))
	require.NoError(t, err)
	assert.Empty(t, messages)

	states, err := f.factory.ParticipantRepo.ForUser(ctx, "seller")
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestDirectoryOrdersByActivity(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller-a")
	f.seedProduct(t, "p2", "seller-b")
	f.seedProduct(t, "p3", "seller-c")
	ctx := context.Background()

	older := f.startConversation(t, "buyer", "p1")
	newer := f.startConversation(t, "buyer", "p2")
	silent := f.startConversation(t, "buyer", "p3")

	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	_, err := f.send.Handle(ctx, SendMessageCommand{ViewerID: "buyer", ConversationID: older, Content: "first", Now: base})
	require.NoError(t, err)
	_, err = f.send.Handle(ctx, SendMessageCommand{ViewerID: "buyer", ConversationID: newer, Content: "second", Now: base.Add(time.Hour)})
	require.NoError(t, err)

	directory, err := f.dir.Handle(ctx, DirectoryQuery{ViewerID: "buyer", Filter: FilterAll})
	require.NoError(t, err)
	require.Len(t, directory.Items, 3)
	assert.Equal(t, newer, directory.Items[0].ID)
	assert.Equal(t, older, directory.Items[1].ID)
	assert.Equal(t, silent, directory.Items[2].ID, "conversations without messages sort last")
	assert.NotNil(t, directory.Items[0].LastMessage)
	assert.Equal(t, "second", directory.Items[0].LastMessage.Content)
}

func TestDirectoryFilters(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller-a")
	f.seedProduct(t, "p2", "seller-b")
	ctx := context.Background()

	unreadConv := f.startConversation(t, "buyer", "p1")
	importantConv := f.startConversation(t, "buyer", "p2")

	_, err := f.send.Handle(ctx, SendMessageCommand{ViewerID: "seller-a", ConversationID: unreadConv, Content: "ping"})
	require.NoError(t, err)
	_, err = f.flags.HandleSet(ctx, SetFlagCommand{ViewerID: "buyer", ConversationID: importantConv, Flag: domainchat.FlagImportant, Value: true})
	require.NoError(t, err)

	unread, err := f.dir.Handle(ctx, DirectoryQuery{ViewerID: "buyer", Filter: FilterUnread})
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, unreadConv, unread.Items[0].ID)

	important, err := f.dir.Handle(ctx, DirectoryQuery{ViewerID: "buyer", Filter: FilterImportant})
	require.NoError(t, err)
	require.Len(t, important.Items, 1)
	assert.Equal(t, importantConv, important.Items[0].ID)
}

func TestDirectoryEmptyViewer(t *testing.T) {
	f := newFixture(t)

	directory, err := f.dir.Handle(context.Background(), DirectoryQuery{})
	require.NoError(t, err)
	assert.Empty(t, directory.Items)
}

func TestUnreadCountIgnoresFilter(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller-a")
	f.seedProduct(t, "p2", "seller-b")
	ctx := context.Background()

	first := f.startConversation(t, "buyer", "p1")
	second := f.startConversation(t, "buyer", "p2")

	_, err := f.send.Handle(ctx, SendMessageCommand{ViewerID: "seller-a", ConversationID: first, Content: "one"})
	require.NoError(t, err)
	_, err = f.send.Handle(ctx, SendMessageCommand{ViewerID: "seller-b", ConversationID: second, Content: "two"})
	require.NoError(t, err)

	count, err := f.count.Handle(ctx, UnreadCountQuery{ViewerID: "buyer"})
	require.NoError(t, err)
	assert.Equal(t, 2, count.Count)

	_, err = f.open.Handle(ctx, OpenThreadCommand{ViewerID: "buyer", ConversationID: first})
	require.NoError(t, err)

	count, err = f.count.Handle(ctx, UnreadCountQuery{ViewerID: "buyer"})
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)
}

func TestSendMessageRetryWithSameKeyReturnsOriginal(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "seller")
	convID := f.startConversation(t, "buyer", "p1")
	ctx := context.Background()

	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, SendMessageCommand{}.Key(), f.send)
	bus := middleware.ChainCommands(base, middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	cmd := SendMessageCommand{
		ViewerID:        "buyer",
		ConversationID:  convID,
		Content:         "still available?",
		IdempotencyKeyV: "send-1",
	}
	first, err := commands.Dispatch[SendMessageCommand, *dto.Message](ctx, bus, cmd)
	require.NoError(t, err)

	second, err := commands.Dispatch[SendMessageCommand, *dto.Message](ctx, bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	messages, err := f.factory.MessageRepo.ListByConversation(ctx, domainchat.ConversationID(convID))
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}
