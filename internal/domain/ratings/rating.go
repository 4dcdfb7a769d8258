package ratings

import (
	"context"
	"errors"
	"strings"
	"time"

	"campustrades/internal/domain/products"
	"campustrades/internal/domain/shared/events"
)

var (
	ErrInvalidRating  = errors.New("ratings: rating must be between 1 and 5")
	ErrProductMissing = errors.New("ratings: product id is required")
	ErrBuyerMissing   = errors.New("ratings: buyer id is required")
	ErrSellerMissing  = errors.New("ratings: seller id is required")
	ErrDuplicate      = errors.New("ratings: rating already exists for product and buyer")
	ErrNotFound       = errors.New("ratings: not found")
)

type RatingID string

// Rating is a buyer's 1-5 score for a completed purchase. At most one rating
// exists per (product, buyer) pair.
type Rating struct {
	ID        RatingID
	ProductID products.ProductID
	SellerID  string
	BuyerID   string
	Rating    int
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByProductAndBuyer(ctx context.Context, productID products.ProductID, buyerID string) (*Rating, error)
	// RatedProductIDs returns the set of product ids the buyer has already
	// rated, used to subtract from the pending-rating set in one pass.
	RatedProductIDs(ctx context.Context, buyerID string) (map[products.ProductID]struct{}, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Rating, error)
	Save(ctx context.Context, rating *Rating) error
}

type SubmitParams struct {
	ID        RatingID
	ProductID products.ProductID
	SellerID  string
	BuyerID   string
	Rating    int
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Rating, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(string(params.ProductID)) == "" {
		return nil, ErrProductMissing
	}
	buyer := strings.TrimSpace(params.BuyerID)
	if buyer == "" {
		return nil, ErrBuyerMissing
	}
	seller := strings.TrimSpace(params.SellerID)
	if seller == "" {
		return nil, ErrSellerMissing
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	rating := &Rating{
		ID:        params.ID,
		ProductID: params.ProductID,
		SellerID:  seller,
		BuyerID:   buyer,
		Rating:    params.Rating,
		CreatedAt: now.UTC(),
	}
	rating.Record(RatingSubmitted{
		RatingID:  rating.ID,
		ProductID: rating.ProductID,
		SellerID:  seller,
		BuyerID:   buyer,
		Rating:    rating.Rating,
		At:        rating.CreatedAt,
	})
	return rating, nil
}

// Average computes the mean score of the given ratings, zero when empty.
func Average(list []*Rating) float64 {
	if len(list) == 0 {
		return 0
	}
	sum := 0
	for _, r := range list {
		sum += r.Rating
	}
	return float64(sum) / float64(len(list))
}
