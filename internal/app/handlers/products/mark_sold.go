package products

import (
	"context"
	"log/slog"
	"time"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainproducts "campustrades/internal/domain/products"
)

const markSoldKey = "products.mark_sold"

// MarkSoldCommand closes a sale: the seller records which user bought the
// item. The buyer then becomes eligible for the rating prompt.
type MarkSoldCommand struct {
	ViewerID  string
	ProductID string
	BuyerID   string
	Now       time.Time
}

func (c MarkSoldCommand) Key() string { return markSoldKey }

type MarkSoldHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *MarkSoldHandler) Handle(ctx context.Context, cmd MarkSoldCommand) (dto.Product, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Product{}, err
	}

	product, err := h.markSold(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.Product{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("product sold",
			"product_id", string(product.ID),
			"seller_id", cmd.ViewerID,
			"buyer_id", cmd.BuyerID,
		)
	}
	return dto.MapProduct(product), nil
}

func (h *MarkSoldHandler) markSold(ctx context.Context, unit uow.UnitOfWork, cmd MarkSoldCommand) (*domainproducts.Product, error) {
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
	if err := product.MarkSold(cmd.BuyerID, now); err != nil {
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

var _ commands.Handler[MarkSoldCommand, dto.Product] = (*MarkSoldHandler)(nil)
