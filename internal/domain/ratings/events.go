package ratings

import (
	"time"

	"campustrades/internal/domain/products"
)

type RatingSubmitted struct {
	RatingID  RatingID
	ProductID products.ProductID
	SellerID  string
	BuyerID   string
	Rating    int
	At        time.Time
}

func (e RatingSubmitted) EventName() string     { return "ratings.submitted" }
func (e RatingSubmitted) AggregateID() string   { return string(e.RatingID) }
func (e RatingSubmitted) OccurredAt() time.Time { return e.At }
