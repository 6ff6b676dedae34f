package usecase

import (
	"context"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

type OrderLineUC struct {
	Lines domain.OrderLineRepo
}

// Create checks the id and quantity before anything is written.
func (uc *OrderLineUC) Create(ctx context.Context, l *domain.OrderLine) (*domain.OrderLine, error) {
	if l == nil {
		return nil, domain.InvalidArgumentf("order line is required")
	}
	if l.ID != 0 {
		existing, err := uc.FindByID(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.Conflictf("Order line [%d] already exists", l.ID)
		}
	}
	if err := validateQuantity(l.Quantity); err != nil {
		return nil, err
	}
	if err := uc.Lines.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (uc *OrderLineUC) FindByID(ctx context.Context, id int64) (*domain.OrderLine, error) {
	return found(uc.Lines.FindByID(ctx, id))
}

func (uc *OrderLineUC) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	l, err := uc.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.NotFoundf("Order line [%d] not found", id)
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	l.Quantity = quantity
	return uc.Lines.Save(ctx, l)
}

func (uc *OrderLineUC) Delete(ctx context.Context, id int64) error {
	l, err := uc.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.NotFoundf("Order line [%d] not found", id)
	}
	return uc.Lines.DeleteByID(ctx, id)
}

func (uc *OrderLineUC) DeleteByOrder(ctx context.Context, orderID int64) error {
	return uc.Lines.DeleteByOrderID(ctx, orderID)
}

func validateQuantity(q int) error {
	if q < 1 {
		return domain.InvalidArgumentf("Quantity must be greater than 0")
	}
	return nil
}
