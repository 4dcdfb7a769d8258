package ratingprompt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/handlers/ratings"
	"campustrades/internal/app/queries"
	domainproducts "campustrades/internal/domain/products"
	domainratings "campustrades/internal/domain/ratings"
	"campustrades/internal/infra/storage/memory"
)

func newPrompter(t *testing.T) (*Prompter, memory.Factory) {
	t.Helper()
	factory := memory.NewFactory()

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, ratings.SubmitRatingCommand{}.Key(),
		&ratings.SubmitRatingHandler{UoWFactory: factory, Outbox: memory.NewOutbox()})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, ratings.PendingRatingsQuery{}.Key(),
		&ratings.PendingRatingsHandler{UoWFactory: factory})

	return &Prompter{Commands: commandBus, Queries: queryBus}, factory
}

func seedPurchase(t *testing.T, factory memory.Factory, productID, seller, buyer string) {
	t.Helper()
	product, err := domainproducts.New(domainproducts.CreateParams{
		ID:         domainproducts.ProductID(productID),
		Seller:     domainproducts.SellerID(seller),
		Title:      "Dorm lamp",
		Category:   "furniture",
		PriceCents: 1200,
	})
	require.NoError(t, err)
	require.NoError(t, product.MarkSold(buyer, time.Now()))
	require.NoError(t, factory.ProductRepo.Save(context.Background(), product))
}

func TestPrompterOpensWithUnratedPurchases(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()

	seedPurchase(t, factory, "p1", "seller-a", "buyer")
	seedPurchase(t, factory, "p2", "seller-b", "buyer")

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)
	assert.True(t, session.Active())
	assert.Equal(t, 2, session.Remaining())
}

func TestPrompterExcludesAlreadyRated(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()

	seedPurchase(t, factory, "p1", "seller-a", "buyer")
	seedPurchase(t, factory, "p2", "seller-b", "buyer")

	rated, err := domainratings.Submit(domainratings.SubmitParams{
		ID:        "r1",
		ProductID: "p1",
		SellerID:  "seller-a",
		BuyerID:   "buyer",
		Rating:    4,
	})
	require.NoError(t, err)
	require.NoError(t, factory.RatingRepo.Save(ctx, rated))

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)
	require.Equal(t, 1, session.Remaining())

	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, "p2", current.ProductID)
}

func TestSkipAdvancesToNextItem(t *testing.T) {
	prompter, factory := newPrompter(t)
	seedPurchase(t, factory, "p1", "seller-a", "buyer")
	seedPurchase(t, factory, "p2", "seller-b", "buyer")

	session, err := prompter.Open(context.Background(), "buyer")
	require.NoError(t, err)

	first, ok := session.Current()
	require.True(t, ok)

	session.Skip()
	second, ok := session.Current()
	require.True(t, ok)
	assert.NotEqual(t, first.ProductID, second.ProductID)
}

func TestSkipPastLastItemClosesSession(t *testing.T) {
	prompter, factory := newPrompter(t)
	seedPurchase(t, factory, "p1", "seller-a", "buyer")
	seedPurchase(t, factory, "p2", "seller-b", "buyer")

	session, err := prompter.Open(context.Background(), "buyer")
	require.NoError(t, err)

	session.Skip()
	session.Skip()
	assert.False(t, session.Active())
	assert.Zero(t, session.Remaining())

	_, ok := session.Current()
	assert.False(t, ok)
}

func TestSubmitAfterSkippingClosesSession(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()
	seedPurchase(t, factory, "p1", "seller-a", "buyer")
	seedPurchase(t, factory, "p2", "seller-b", "buyer")

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)

	session.Skip()
	last, ok := session.Current()
	require.True(t, ok)

	rating, err := prompter.Submit(ctx, session, 4)
	require.NoError(t, err)
	assert.Equal(t, last.ProductID, rating.ProductID)

	assert.False(t, session.Active(), "rating the last pending item hides the prompt")

	_, err = prompter.Submit(ctx, session, 5)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSubmitDropsCurrentItem(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()
	seedPurchase(t, factory, "p1", "seller-a", "buyer")
	seedPurchase(t, factory, "p2", "seller-b", "buyer")

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)

	current, ok := session.Current()
	require.True(t, ok)

	rating, err := prompter.Submit(ctx, session, 5)
	require.NoError(t, err)
	assert.Equal(t, current.ProductID, rating.ProductID)
	assert.Equal(t, 5, rating.Rating)
	assert.Equal(t, 1, session.Remaining())

	next, ok := session.Current()
	require.True(t, ok)
	assert.NotEqual(t, current.ProductID, next.ProductID)
}

func TestSubmitInvalidScoreKeepsSession(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()
	seedPurchase(t, factory, "p1", "seller-a", "buyer")

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)

	_, err = prompter.Submit(ctx, session, 0)
	assert.ErrorIs(t, err, domainratings.ErrInvalidRating)
	assert.Equal(t, 1, session.Remaining())

	_, err = prompter.Submit(ctx, session, 6)
	assert.ErrorIs(t, err, domainratings.ErrInvalidRating)
	assert.Equal(t, 1, session.Remaining())
}

func TestDismissIsTerminal(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()
	seedPurchase(t, factory, "p1", "seller-a", "buyer")

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)

	session.Dismiss()
	assert.False(t, session.Active())
	assert.Zero(t, session.Remaining())

	_, ok := session.Current()
	assert.False(t, ok)

	_, err = prompter.Submit(ctx, session, 5)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionClosesWhenDrained(t *testing.T) {
	prompter, factory := newPrompter(t)
	ctx := context.Background()
	seedPurchase(t, factory, "p1", "seller-a", "buyer")

	session, err := prompter.Open(ctx, "buyer")
	require.NoError(t, err)

	_, err = prompter.Submit(ctx, session, 3)
	require.NoError(t, err)

	assert.False(t, session.Active())
}
