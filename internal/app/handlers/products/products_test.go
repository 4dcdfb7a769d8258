package products

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproducts "campustrades/internal/domain/products"
	"campustrades/internal/infra/storage/memory"
)

func newHandlers(t *testing.T) (memory.Factory, *CreateProductHandler, *UpdateProductHandler, *MarkSoldHandler) {
	t.Helper()
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	return factory,
		&CreateProductHandler{UoWFactory: factory, Outbox: box},
		&UpdateProductHandler{UoWFactory: factory, Outbox: box},
		&MarkSoldHandler{UoWFactory: factory, Outbox: box}
}

func TestCreateProduct(t *testing.T) {
	_, create, _, _ := newHandlers(t)

	product, err := create.Handle(context.Background(), CreateProductCommand{
		ViewerID:   "seller",
		Title:      "  Mini fridge ",
		Category:   "appliances",
		PriceCents: 4500,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Mini fridge", product.Title)
	assert.Equal(t, string(domainproducts.StatusAvailable), product.Status)
}

func TestCreateProductValidation(t *testing.T) {
	_, create, _, _ := newHandlers(t)
	ctx := context.Background()

	_, err := create.Handle(ctx, CreateProductCommand{ViewerID: "seller", Category: "books", PriceCents: 100})
	assert.ErrorIs(t, err, domainproducts.ErrTitleRequired)

	_, err = create.Handle(ctx, CreateProductCommand{ViewerID: "seller", Title: "Lamp", Category: "home", PriceCents: -1})
	assert.ErrorIs(t, err, domainproducts.ErrNegativePrice)
}

func TestUpdateProductSellerOnly(t *testing.T) {
	_, create, update, _ := newHandlers(t)
	ctx := context.Background()

	product, err := create.Handle(ctx, CreateProductCommand{
		ViewerID: "seller", Title: "Lamp", Category: "home", PriceCents: 1000,
	})
	require.NoError(t, err)

	_, err = update.Handle(ctx, UpdateProductCommand{
		ViewerID: "intruder", ProductID: product.ID,
		Title: "Stolen lamp", Category: "home", PriceCents: 1,
	})
	assert.ErrorIs(t, err, domainproducts.ErrNotSeller)

	updated, err := update.Handle(ctx, UpdateProductCommand{
		ViewerID: "seller", ProductID: product.ID,
		Title: "Desk lamp", Category: "home", PriceCents: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", updated.Title)
	assert.Equal(t, int64(800), updated.PriceCents)
}

func TestMarkSold(t *testing.T) {
	_, create, _, markSold := newHandlers(t)
	ctx := context.Background()

	product, err := create.Handle(ctx, CreateProductCommand{
		ViewerID: "seller", Title: "Bike", Category: "sports", PriceCents: 9000,
	})
	require.NoError(t, err)

	sold, err := markSold.Handle(ctx, MarkSoldCommand{ViewerID: "seller", ProductID: product.ID, BuyerID: "buyer"})
	require.NoError(t, err)
	assert.Equal(t, string(domainproducts.StatusSold), sold.Status)
	assert.Equal(t, "buyer", sold.BuyerID)

	_, err = markSold.Handle(ctx, MarkSoldCommand{ViewerID: "seller", ProductID: product.ID, BuyerID: "other"})
	assert.ErrorIs(t, err, domainproducts.ErrAlreadySold)
}

func TestMarkSoldRejections(t *testing.T) {
	_, create, _, markSold := newHandlers(t)
	ctx := context.Background()

	product, err := create.Handle(ctx, CreateProductCommand{
		ViewerID: "seller", Title: "Bike", Category: "sports", PriceCents: 9000,
	})
	require.NoError(t, err)

	_, err = markSold.Handle(ctx, MarkSoldCommand{ViewerID: "buyer", ProductID: product.ID, BuyerID: "buyer"})
	assert.ErrorIs(t, err, domainproducts.ErrNotSeller)

	_, err = markSold.Handle(ctx, MarkSoldCommand{ViewerID: "seller", ProductID: product.ID, BuyerID: "seller"})
	assert.ErrorIs(t, err, domainproducts.ErrBuyerIsSeller)
}

func TestCatalogSearch(t *testing.T) {
	factory, create, _, markSold := newHandlers(t)
	catalog := &CatalogHandler{UoWFactory: factory}
	ctx := context.Background()
	base := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)

	cheap, err := create.Handle(ctx, CreateProductCommand{
		ViewerID: "alice", Title: "Physics textbook", Category: "books", PriceCents: 1500, Now: base,
	})
	require.NoError(t, err)
	_, err = create.Handle(ctx, CreateProductCommand{
		ViewerID: "bob", Title: "Chemistry textbook", Category: "books", PriceCents: 3000, Now: base.Add(time.Hour),
	})
	require.NoError(t, err)
	soldOne, err := create.Handle(ctx, CreateProductCommand{
		ViewerID: "alice", Title: "History textbook", Category: "books", PriceCents: 2000, Now: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	_, err = create.Handle(ctx, CreateProductCommand{
		ViewerID: "carol", Title: "Road bike", Category: "sports", PriceCents: 12000, Now: base.Add(3 * time.Hour),
	})
	require.NoError(t, err)

	_, err = markSold.Handle(ctx, MarkSoldCommand{ViewerID: "alice", ProductID: soldOne.ID, BuyerID: "dave"})
	require.NoError(t, err)

	page, err := catalog.Handle(ctx, CatalogQuery{Query: "textbook"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "sold listings are hidden by default")

	page, err = catalog.Handle(ctx, CatalogQuery{Query: "textbook", IncludeSold: true})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = catalog.Handle(ctx, CatalogQuery{Category: "books", Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, cheap.ID, page.Items[0].ID)

	page, err = catalog.Handle(ctx, CatalogQuery{PriceMinCents: 10000})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Road bike", page.Items[0].Title)
}

func TestCatalogPaging(t *testing.T) {
	factory, create, _, _ := newHandlers(t)
	catalog := &CatalogHandler{UoWFactory: factory}
	ctx := context.Background()
	base := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := create.Handle(ctx, CreateProductCommand{
			ViewerID: "seller", Title: "Poster", Category: "decor", PriceCents: int64(100 * (i + 1)),
			Now: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	page, err := catalog.Handle(ctx, CatalogQuery{Category: "decor", Limit: 2, Offset: 2, Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(300), page.Items[0].PriceCents)
	assert.Equal(t, int64(400), page.Items[1].PriceCents)
}

func TestFavorites(t *testing.T) {
	factory, create, _, _ := newHandlers(t)
	setFavorite := &SetFavoriteHandler{UoWFactory: factory}
	listFavorites := &ListFavoritesHandler{UoWFactory: factory}
	ctx := context.Background()

	product, err := create.Handle(ctx, CreateProductCommand{
		ViewerID: "seller", Title: "Kettle", Category: "kitchen", PriceCents: 2000,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		state, err := setFavorite.Handle(ctx, SetFavoriteCommand{ViewerID: "buyer", ProductID: product.ID, Favored: true})
		require.NoError(t, err)
		assert.True(t, state.Value)
	}

	favorites, err := listFavorites.Handle(ctx, ListFavoritesQuery{ViewerID: "buyer"})
	require.NoError(t, err)
	require.Len(t, favorites.Items, 1)
	assert.Equal(t, product.ID, favorites.Items[0].ID)

	_, err = setFavorite.Handle(ctx, SetFavoriteCommand{ViewerID: "buyer", ProductID: product.ID, Favored: false})
	require.NoError(t, err)

	favorites, err = listFavorites.Handle(ctx, ListFavoritesQuery{ViewerID: "buyer"})
	require.NoError(t, err)
	assert.Empty(t, favorites.Items)
}

func TestFavoriteMissingProduct(t *testing.T) {
	factory := memory.NewFactory()
	setFavorite := &SetFavoriteHandler{UoWFactory: factory}

	_, err := setFavorite.Handle(context.Background(), SetFavoriteCommand{ViewerID: "buyer", ProductID: "ghost", Favored: true})
	assert.ErrorIs(t, err, domainproducts.ErrNotFound)
}
