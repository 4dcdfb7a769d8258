package dto

import (
	"time"

	domainratings "campustrades/internal/domain/ratings"
)

// Rating is a submitted purchase rating payload.
type Rating struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	SellerID  string    `json:"seller_id"`
	BuyerID   string    `json:"buyer_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingRating is one rating-prompt item: a sold purchase the viewer has
// not rated yet, with the seller's identity for display.
type PendingRating struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Seller    Profile `json:"seller"`
}

type PendingRatingCollection struct {
	Items []PendingRating `json:"items"`
}

func MapRating(rating *domainratings.Rating) Rating {
	if rating == nil {
		return Rating{}
	}
	return Rating{
		ID:        string(rating.ID),
		ProductID: string(rating.ProductID),
		SellerID:  rating.SellerID,
		BuyerID:   rating.BuyerID,
		Rating:    rating.Rating,
		CreatedAt: rating.CreatedAt,
	}
}

// SellerRatings is a seller's received ratings with the running average.
type SellerRatings struct {
	Items   []Rating `json:"items"`
	Average float64  `json:"average"`
}
