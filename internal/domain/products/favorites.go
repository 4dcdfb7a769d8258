package products

import (
	"context"
	"time"
)

// Favorite marks a product saved by a user.
type Favorite struct {
	UserID    string
	ProductID ProductID
	CreatedAt time.Time
}

// FavoriteRepository stores per-user saved products. Set is idempotent in
// both directions.
type FavoriteRepository interface {
	Set(ctx context.Context, userID string, productID ProductID, favored bool, now time.Time) error
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
	IsFavorite(ctx context.Context, userID string, productID ProductID) (bool, error)
}
