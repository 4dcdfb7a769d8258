package ratings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
	domainratings "campustrades/internal/domain/ratings"
	"campustrades/internal/infra/storage/memory"
)

func seedSold(t *testing.T, factory memory.Factory, productID, seller, buyer string, at time.Time) {
	t.Helper()
	product, err := domainproducts.New(domainproducts.CreateParams{
		ID:         domainproducts.ProductID(productID),
		Seller:     domainproducts.SellerID(seller),
		Title:      "Graphing calculator",
		Category:   "electronics",
		PriceCents: 5000,
		Now:        at,
	})
	require.NoError(t, err)
	require.NoError(t, product.MarkSold(buyer, at))
	require.NoError(t, factory.ProductRepo.Save(context.Background(), product))
}

func TestSubmitRating(t *testing.T) {
	factory := memory.NewFactory()
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	ctx := context.Background()
	seedSold(t, factory, "p1", "seller", "buyer", time.Now())

	rating, err := submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer", ProductID: "p1", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "seller", rating.SellerID)
	assert.Equal(t, 4, rating.Rating)

	_, err = submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer", ProductID: "p1", Rating: 5})
	assert.ErrorIs(t, err, domainratings.ErrDuplicate)
}

func TestSubmitRatingGuards(t *testing.T) {
	factory := memory.NewFactory()
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	ctx := context.Background()

	available, err := domainproducts.New(domainproducts.CreateParams{
		ID: "open", Seller: "seller", Title: "Headphones", Category: "electronics", PriceCents: 3000,
	})
	require.NoError(t, err)
	require.NoError(t, factory.ProductRepo.Save(ctx, available))

	_, err = submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer", ProductID: "open", Rating: 5})
	assert.ErrorIs(t, err, ErrProductNotSold)

	seedSold(t, factory, "p1", "seller", "buyer", time.Now())

	_, err = submit.Handle(ctx, SubmitRatingCommand{ViewerID: "someone-else", ProductID: "p1", Rating: 5})
	assert.ErrorIs(t, err, ErrNotBuyer)

	_, err = submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer", ProductID: "p1", Rating: 0})
	assert.ErrorIs(t, err, domainratings.ErrInvalidRating)
}

func TestPendingRatings(t *testing.T) {
	factory := memory.NewFactory()
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	pending := &PendingRatingsHandler{UoWFactory: factory}
	ctx := context.Background()

	seedSold(t, factory, "p1", "seller-a", "buyer", time.Now())
	seedSold(t, factory, "p2", "seller-b", "buyer", time.Now())
	require.NoError(t, factory.ProfileRepo.Save(ctx, &domainprofiles.Profile{
		UserID:   "seller-a",
		FullName: "Avery Lee",
	}))

	list, err := pending.Handle(ctx, PendingRatingsQuery{ViewerID: "buyer"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	_, err = submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer", ProductID: "p1", Rating: 5})
	require.NoError(t, err)

	list, err = pending.Handle(ctx, PendingRatingsQuery{ViewerID: "buyer"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p2", list.Items[0].ProductID)
}

func TestSellerRatingsAverage(t *testing.T) {
	factory := memory.NewFactory()
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	seller := &SellerRatingsHandler{UoWFactory: factory}
	ctx := context.Background()

	seedSold(t, factory, "p1", "seller", "buyer-a", time.Now())
	seedSold(t, factory, "p2", "seller", "buyer-b", time.Now())

	_, err := submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer-a", ProductID: "p1", Rating: 5})
	require.NoError(t, err)
	_, err = submit.Handle(ctx, SubmitRatingCommand{ViewerID: "buyer-b", ProductID: "p2", Rating: 2})
	require.NoError(t, err)

	result, err := seller.Handle(ctx, SellerRatingsQuery{SellerID: "seller"})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.InDelta(t, 3.5, result.Average, 0.001)

	empty, err := seller.Handle(ctx, SellerRatingsQuery{SellerID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.Average)
}
