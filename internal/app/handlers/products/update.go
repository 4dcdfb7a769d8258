package products

import (
	"context"
	"time"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainproducts "campustrades/internal/domain/products"
)

const updateProductKey = "products.update"

// UpdateProductCommand edits a listing's details. Only the seller may edit.
type UpdateProductCommand struct {
	ViewerID    string
	ProductID   string
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Now         time.Time
}

func (c UpdateProductCommand) Key() string { return updateProductKey }

type UpdateProductHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (dto.Product, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Product{}, err
	}

	product, err := h.update(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.Product{}, err
	}
	return dto.MapProduct(product), nil
}

func (h *UpdateProductHandler) update(ctx context.Context, unit uow.UnitOfWork, cmd UpdateProductCommand) (*domainproducts.Product, error) {
	product, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID))
	if err != nil {
		return nil, err
	}
	if string(product.Seller) != cmd.ViewerID {
		return nil, domainproducts.ErrNotSeller
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if err := product.UpdateDetails(cmd.Title, cmd.Description, cmd.Category, cmd.PriceCents, now); err != nil {
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

var _ commands.Handler[UpdateProductCommand, dto.Product] = (*UpdateProductHandler)(nil)
