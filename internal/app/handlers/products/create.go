package products

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainproducts "campustrades/internal/domain/products"
)

const createProductKey = "products.create"

// CreateProductCommand lists a new item for sale on behalf of the viewer.
type CreateProductCommand struct {
	ViewerID    string
	Title       string
	Description string
	Category    string
	PriceCents  int64
	ImageURLs   []string
	Now         time.Time
}

func (c CreateProductCommand) Key() string { return createProductKey }

type CreateProductHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (dto.Product, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Product{}, err
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	product, err := h.create(ctx, unit, cmd, now)
	if err = finish(ctx, err); err != nil {
		return dto.Product{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("product listed", "product_id", string(product.ID), "seller_id", cmd.ViewerID)
	}
	return dto.MapProduct(product), nil
}

func (h *CreateProductHandler) create(ctx context.Context, unit uow.UnitOfWork, cmd CreateProductCommand, now time.Time) (*domainproducts.Product, error) {
	product, err := domainproducts.New(domainproducts.CreateParams{
		ID:          domainproducts.ProductID(uuid.NewString()),
		Seller:      domainproducts.SellerID(cmd.ViewerID),
		Title:       cmd.Title,
		Description: cmd.Description,
		Category:    cmd.Category,
		PriceCents:  cmd.PriceCents,
		ImageURLs:   cmd.ImageURLs,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Products().Save(ctx, product); err != nil {
		return nil, err
	}

	pending := product.PendingEvents()
	product.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), pending); err != nil {
		return nil, err
	}
	return product, nil
}

func encoderOrDefault(encoder outbox.EventEncoder) outbox.EventEncoder {
	if encoder != nil {
		return encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateProductCommand, dto.Product] = (*CreateProductHandler)(nil)
