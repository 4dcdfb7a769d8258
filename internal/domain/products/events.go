package products

import "time"

type ProductListed struct {
	ProductID ProductID
	Seller    SellerID
	At        time.Time
}

func (e ProductListed) EventName() string     { return "products.listed" }
func (e ProductListed) AggregateID() string   { return string(e.ProductID) }
func (e ProductListed) OccurredAt() time.Time { return e.At }

type ProductUpdated struct {
	ProductID ProductID
	At        time.Time
}

func (e ProductUpdated) EventName() string     { return "products.updated" }
func (e ProductUpdated) AggregateID() string   { return string(e.ProductID) }
func (e ProductUpdated) OccurredAt() time.Time { return e.At }

type ProductSold struct {
	ProductID ProductID
	Seller    SellerID
	BuyerID   string
	At        time.Time
}

func (e ProductSold) EventName() string     { return "products.sold" }
func (e ProductSold) AggregateID() string   { return string(e.ProductID) }
func (e ProductSold) OccurredAt() time.Time { return e.At }
