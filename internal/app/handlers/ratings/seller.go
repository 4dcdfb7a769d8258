package ratings

import (
	"context"

	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
	domainratings "campustrades/internal/domain/ratings"
)

const sellerRatingsKey = "ratings.by_seller"

// SellerRatingsQuery lists the ratings a seller has received, newest first,
// with their average.
type SellerRatingsQuery struct {
	SellerID string
}

func (q SellerRatingsQuery) Key() string { return sellerRatingsKey }

type SellerRatingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SellerRatingsHandler) Handle(ctx context.Context, q SellerRatingsQuery) (dto.SellerRatings, error) {
	empty := dto.SellerRatings{Items: []dto.Rating{}}
	if q.SellerID == "" {
		return empty, nil
	}

	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return empty, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	ratings, err := unit.Ratings().ListBySeller(ctx, q.SellerID)
	if err != nil {
		return empty, err
	}
	items := make([]dto.Rating, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, dto.MapRating(rating))
	}
	return dto.SellerRatings{Items: items, Average: domainratings.Average(ratings)}, nil
}

var _ queries.Handler[SellerRatingsQuery, dto.SellerRatings] = (*SellerRatingsHandler)(nil)
