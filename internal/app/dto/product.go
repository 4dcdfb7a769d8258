package dto

import (
	"time"

	domainproducts "campustrades/internal/domain/products"
	domainrequests "campustrades/internal/domain/requests"
)

// Product is the full listing payload.
type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	BuyerID     string    `json:"buyer_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductCollection is one catalog page.
type ProductCollection struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// ItemRequest is a "wanted" post payload.
type ItemRequest struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Fulfilled   bool      `json:"fulfilled"`
	FulfilledBy string    `json:"fulfilled_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ItemRequestCollection struct {
	Items []ItemRequest `json:"items"`
}

func MapProduct(product *domainproducts.Product) Product {
	if product == nil {
		return Product{}
	}
	return Product{
		ID:          string(product.ID),
		SellerID:    string(product.Seller),
		BuyerID:     product.BuyerID,
		Title:       product.Title,
		Description: product.Description,
		Category:    product.Category,
		PriceCents:  product.PriceCents,
		ImageURLs:   append([]string(nil), product.ImageURLs...),
		Status:      string(product.Status),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func MapItemRequest(request *domainrequests.ItemRequest) ItemRequest {
	if request == nil {
		return ItemRequest{}
	}
	return ItemRequest{
		ID:          string(request.ID),
		RequesterID: request.RequesterID,
		Title:       request.Title,
		Description: request.Description,
		Fulfilled:   request.Fulfilled,
		FulfilledBy: request.FulfilledBy,
		CreatedAt:   request.CreatedAt,
	}
}
