package products

import (
	"context"
	"time"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
	domainproducts "campustrades/internal/domain/products"
)

const (
	setFavoriteKey   = "products.set_favorite"
	listFavoritesKey = "products.list_favorites"
)

// SetFavoriteCommand stars or unstars a listing for the viewer. Repeating
// the same state is a no-op.
type SetFavoriteCommand struct {
	ViewerID  string
	ProductID string
	Favored   bool
	Now       time.Time
}

func (c SetFavoriteCommand) Key() string { return setFavoriteKey }

type SetFavoriteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SetFavoriteHandler) Handle(ctx context.Context, cmd SetFavoriteCommand) (dto.FlagState, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.FlagState{}, err
	}

	err = h.set(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.FlagState{}, err
	}
	return dto.FlagState{Flag: "favorite", Value: cmd.Favored}, nil
}

func (h *SetFavoriteHandler) set(ctx context.Context, unit uow.UnitOfWork, cmd SetFavoriteCommand) error {
	// Listing must exist before it can be starred.
	if _, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID)); err != nil {
		return err
	}
	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return unit.Favorites().Set(ctx, cmd.ViewerID, domainproducts.ProductID(cmd.ProductID), cmd.Favored, now)
}

// ListFavoritesQuery returns the viewer's starred listings, most recently
// starred first.
type ListFavoritesQuery struct {
	ViewerID string
}

func (q ListFavoritesQuery) Key() string { return listFavoritesKey }

type ListFavoritesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) (dto.ProductCollection, error) {
	empty := dto.ProductCollection{Items: []dto.Product{}}
	if q.ViewerID == "" {
		return empty, nil
	}

	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return empty, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	favorites, err := unit.Favorites().ListByUser(ctx, q.ViewerID)
	if err != nil {
		return empty, err
	}
	ids := make([]domainproducts.ProductID, 0, len(favorites))
	for _, favorite := range favorites {
		ids = append(ids, favorite.ProductID)
	}
	byID, err := unit.Products().ByIDs(ctx, ids)
	if err != nil {
		return empty, err
	}

	items := make([]dto.Product, 0, len(favorites))
	for _, favorite := range favorites {
		if product, ok := byID[favorite.ProductID]; ok {
			items = append(items, dto.MapProduct(product))
		}
	}
	return dto.ProductCollection{Items: items, Total: len(items)}, nil
}

var (
	_ commands.Handler[SetFavoriteCommand, dto.FlagState]         = (*SetFavoriteHandler)(nil)
	_ queries.Handler[ListFavoritesQuery, dto.ProductCollection]  = (*ListFavoritesHandler)(nil)
)
