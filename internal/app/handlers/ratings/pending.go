package ratings

import (
	"context"

	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
)

const pendingRatingsKey = "ratings.pending"

// PendingRatingsQuery finds the viewer's completed purchases that still lack
// a rating from the viewer: products sold to them minus products they have
// already rated.
type PendingRatingsQuery struct {
	ViewerID string
}

func (q PendingRatingsQuery) Key() string { return pendingRatingsKey }

type PendingRatingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *PendingRatingsHandler) Handle(ctx context.Context, q PendingRatingsQuery) (dto.PendingRatingCollection, error) {
	empty := dto.PendingRatingCollection{Items: []dto.PendingRating{}}
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

	purchases, err := unit.Products().SoldToBuyer(ctx, q.ViewerID)
	if err != nil {
		return empty, err
	}
	if len(purchases) == 0 {
		return empty, nil
	}

	rated, err := unit.Ratings().RatedProductIDs(ctx, q.ViewerID)
	if err != nil {
		return empty, err
	}

	sellerIDs := make([]string, 0, len(purchases))
	for _, product := range purchases {
		if _, done := rated[product.ID]; !done {
			sellerIDs = append(sellerIDs, string(product.Seller))
		}
	}
	sellers, err := unit.Profiles().ByUserIDs(ctx, sellerIDs)
	if err != nil {
		return empty, err
	}

	items := make([]dto.PendingRating, 0, len(purchases))
	for _, product := range purchases {
		if _, done := rated[product.ID]; done {
			continue
		}
		items = append(items, dto.PendingRating{
			ProductID: string(product.ID),
			Title:     product.Title,
			Seller:    dto.MapProfile(string(product.Seller), sellers[string(product.Seller)]),
		})
	}
	return dto.PendingRatingCollection{Items: items}, nil
}

var _ queries.Handler[PendingRatingsQuery, dto.PendingRatingCollection] = (*PendingRatingsHandler)(nil)
