package unread

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlerchat "campustrades/internal/app/handlers/chat"
	"campustrades/internal/app/queries"
	domainchat "campustrades/internal/domain/chat"
	"campustrades/internal/infra/storage/memory"
)

type stubCache struct {
	entries map[string]int
	getErr  error
	sets    int
	deletes int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]int)}
}

func (s *stubCache) Get(_ context.Context, viewerID string) (int, bool, error) {
	if s.getErr != nil {
		return 0, false, s.getErr
	}
	count, ok := s.entries[viewerID]
	return count, ok, nil
}

func (s *stubCache) Set(_ context.Context, viewerID string, count int, _ time.Duration) error {
	s.sets++
	s.entries[viewerID] = count
	return nil
}

func (s *stubCache) Delete(_ context.Context, viewerID string) error {
	s.deletes++
	delete(s.entries, viewerID)
	return nil
}

func newCounter(t *testing.T, cacheImpl Cache) (*Counter, memory.Factory) {
	t.Helper()
	factory := memory.NewFactory()
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler(bus, handlerchat.UnreadCountQuery{}.Key(),
		&handlerchat.UnreadCountHandler{UoWFactory: factory})
	return &Counter{Queries: bus, Cache: cacheImpl, TTL: time.Second}, factory
}

func seedUnread(t *testing.T, factory memory.Factory, convID, viewer string) {
	t.Helper()
	ctx := context.Background()
	conv, err := domainchat.Start(domainchat.StartParams{
		ID:        domainchat.ConversationID(convID),
		BuyerID:   viewer,
		SellerID:  "seller-" + convID,
		ProductID: "product-" + convID,
	})
	require.NoError(t, err)
	require.NoError(t, factory.ConversationRepo.Save(ctx, conv))
	require.NoError(t, factory.ParticipantRepo.Save(ctx, &domainchat.ParticipantState{
		ConversationID: conv.ID,
		UserID:         viewer,
		Unread:         true,
	}))
}

func TestCounterComputesAndCaches(t *testing.T) {
	cacheImpl := newStubCache()
	counter, factory := newCounter(t, cacheImpl)
	ctx := context.Background()

	seedUnread(t, factory, "c1", "viewer")

	count, err := counter.Count(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, cacheImpl.sets)

	// A second unread conversation lands, but the cached value still answers.
	seedUnread(t, factory, "c2", "viewer")
	count, err = counter.Count(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, cacheImpl.sets)
}

func TestCounterInvalidateForcesRecompute(t *testing.T) {
	cacheImpl := newStubCache()
	counter, factory := newCounter(t, cacheImpl)
	ctx := context.Background()

	seedUnread(t, factory, "c1", "viewer")
	_, err := counter.Count(ctx, "viewer")
	require.NoError(t, err)

	seedUnread(t, factory, "c2", "viewer")
	counter.Invalidate(ctx, "viewer")

	count, err := counter.Count(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCounterFallsThroughOnCacheError(t *testing.T) {
	cacheImpl := newStubCache()
	cacheImpl.getErr = errors.New("cache down")
	counter, factory := newCounter(t, cacheImpl)

	seedUnread(t, factory, "c1", "viewer")

	count, err := counter.Count(context.Background(), "viewer")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCounterEmptyViewer(t *testing.T) {
	counter, _ := newCounter(t, newStubCache())

	count, err := counter.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, count)
}
