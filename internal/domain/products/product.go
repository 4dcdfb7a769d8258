package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"campustrades/internal/domain/shared/events"
)

var (
	ErrIDRequired       = errors.New("products: id is required")
	ErrSellerRequired   = errors.New("products: seller is required")
	ErrTitleRequired    = errors.New("products: title is required")
	ErrCategoryRequired = errors.New("products: category is required")
	ErrNegativePrice    = errors.New("products: price must be non-negative")
	ErrAlreadySold      = errors.New("products: product already sold")
	ErrBuyerRequired    = errors.New("products: buyer is required when marking sold")
	ErrBuyerIsSeller    = errors.New("products: seller cannot buy their own product")
	ErrNotSeller        = errors.New("products: only the seller can modify a product")
	ErrNotFound         = errors.New("products: not found")
)

type ProductID string
type SellerID string

type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// Product is a marketplace listing owned by a seller. BuyerID is set only
// once the product is sold; the (ProductID, BuyerID) pair then feeds the
// rating prompt.
type Product struct {
	ID          ProductID
	Seller      SellerID
	BuyerID     string
	Title       string
	Description string
	Category    string
	PriceCents  int64
	ImageURLs   []string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ProductID) (*Product, error)
	// ByIDs batch-loads products for directory enrichment; missing ids are
	// simply absent from the result map.
	ByIDs(ctx context.Context, ids []ProductID) (map[ProductID]*Product, error)
	Save(ctx context.Context, product *Product) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	// SoldToBuyer returns sold products bought by the given user, the input
	// to the pending-ratings computation.
	SoldToBuyer(ctx context.Context, buyerID string) ([]*Product, error)
}

type CreateParams struct {
	ID          ProductID
	Seller      SellerID
	Title       string
	Description string
	Category    string
	PriceCents  int64
	ImageURLs   []string
	Now         time.Time
}

func New(params CreateParams) (*Product, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Seller)) == "" {
		return nil, ErrSellerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	category := strings.TrimSpace(params.Category)
	if category == "" {
		return nil, ErrCategoryRequired
	}
	if params.PriceCents < 0 {
		return nil, ErrNegativePrice
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	p := &Product{
		ID:          params.ID,
		Seller:      params.Seller,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Category:    category,
		PriceCents:  params.PriceCents,
		ImageURLs:   append([]string(nil), params.ImageURLs...),
		Status:      StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(ProductListed{ProductID: p.ID, Seller: p.Seller, At: now})
	return p, nil
}

// UpdateDetails replaces the editable listing fields. Sold products stay
// editable for typo fixes; status and buyer are untouched here.
func (p *Product) UpdateDetails(title, description, category string, priceCents int64, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrCategoryRequired
	}
	if priceCents < 0 {
		return ErrNegativePrice
	}
	p.Title = title
	p.Description = strings.TrimSpace(description)
	p.Category = category
	p.PriceCents = priceCents
	p.UpdatedAt = now.UTC()
	p.Record(ProductUpdated{ProductID: p.ID, At: p.UpdatedAt})
	return nil
}

// AddImage appends an uploaded image URL.
func (p *Product) AddImage(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	p.ImageURLs = append(p.ImageURLs, url)
	p.UpdatedAt = now.UTC()
}

// MarkSold records the buyer and flips the status. Selling twice fails.
func (p *Product) MarkSold(buyerID string, now time.Time) error {
	if p.Status == StatusSold {
		return ErrAlreadySold
	}
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return ErrBuyerRequired
	}
	if buyerID == string(p.Seller) {
		return ErrBuyerIsSeller
	}
	now = now.UTC()
	p.Status = StatusSold
	p.BuyerID = buyerID
	p.UpdatedAt = now
	p.Record(ProductSold{ProductID: p.ID, Seller: p.Seller, BuyerID: buyerID, At: now})
	return nil
}

// Thumbnail returns the first image URL, if any.
func (p *Product) Thumbnail() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}
