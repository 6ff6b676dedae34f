package usecase

import (
	"context"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

// OrderMetrics receives order lifecycle events. A nil value disables them.
type OrderMetrics interface {
	OrderCreated(lines int)
	OrderUpdated()
	OrderDeleted()
}

type OrderUC struct {
	Orders    domain.OrderRepo
	Finder    domain.OrderFinder
	Tx        domain.Transactor
	Customers *CustomerUC
	Products  *ProductUC
	Lines     *OrderLineUC
	Metrics   OrderMetrics
}

// Create stores the order shell and then one line per requested item, in
// request order. Everything runs in one transaction: a missing product or an
// invalid quantity leaves nothing behind.
func (uc *OrderUC) Create(ctx context.Context, req domain.OrderCreateRequest) (*domain.Order, error) {
	var order *domain.Order
	err := inTx(ctx, uc.Tx, func(ctx context.Context) error {
		customer, err := uc.resolveCustomer(ctx, req)
		if err != nil {
			return err
		}
		o := &domain.Order{
			CustomerCode:     customer.RegistrationCode,
			DateOfSubmission: req.DateOfSubmission,
			Lines:            []domain.OrderLine{},
		}
		if err := uc.Orders.Create(ctx, o); err != nil {
			return err
		}
		if o.Lines, err = uc.createLines(ctx, o.ID, req.Lines); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uc.Metrics != nil {
		uc.Metrics.OrderCreated(len(order.Lines))
	}
	return order, nil
}

// Update replaces an existing order in place: the id is kept, customer and
// date are overwritten and the previous lines are swapped for the requested
// ones.
func (uc *OrderUC) Update(ctx context.Context, req domain.OrderCreateRequest) (*domain.Order, error) {
	var order *domain.Order
	err := inTx(ctx, uc.Tx, func(ctx context.Context) error {
		existing, err := uc.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.NotFoundf("Order not found")
		}
		customer, err := uc.resolveCustomer(ctx, req)
		if err != nil {
			return err
		}
		existing.CustomerCode = customer.RegistrationCode
		existing.DateOfSubmission = req.DateOfSubmission
		if err := uc.Orders.Save(ctx, existing); err != nil {
			return err
		}
		if err := uc.Lines.DeleteByOrder(ctx, existing.ID); err != nil {
			return err
		}
		if existing.Lines, err = uc.createLines(ctx, existing.ID, req.Lines); err != nil {
			return err
		}
		order = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uc.Metrics != nil {
		uc.Metrics.OrderUpdated()
	}
	return order, nil
}

// FindByID returns nil when the order does not exist.
func (uc *OrderUC) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return found(uc.Orders.FindByID(ctx, id))
}

func (uc *OrderUC) Delete(ctx context.Context, id int64) error {
	existing, err := uc.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NotFoundf("Order not found")
	}
	if err := uc.Orders.DeleteByID(ctx, id); err != nil {
		return err
	}
	if uc.Metrics != nil {
		uc.Metrics.OrderDeleted()
	}
	return nil
}

// FindByDate matches the submission date exactly.
func (uc *OrderUC) FindByDate(ctx context.Context, d domain.Date) ([]domain.Order, error) {
	return uc.Orders.FindByDate(ctx, d)
}

func (uc *OrderUC) FindByProductSKU(ctx context.Context, sku string) ([]domain.Order, error) {
	return uc.Finder.FindOrdersByProductSKU(ctx, sku)
}

func (uc *OrderUC) FindByCustomer(ctx context.Context, code int64) ([]domain.Order, error) {
	return uc.Finder.FindOrdersByCustomerCode(ctx, code)
}

func (uc *OrderUC) resolveCustomer(ctx context.Context, req domain.OrderCreateRequest) (*domain.Customer, error) {
	if req.DateOfSubmission.IsZero() {
		return nil, domain.InvalidArgumentf("dateOfSubmission is required")
	}
	customer, err := uc.Customers.FindByCode(ctx, req.CustomerCode)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.NotFoundf("Customer not found")
	}
	return customer, nil
}

func (uc *OrderUC) createLines(ctx context.Context, orderID int64, reqs []domain.OrderLineRequest) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(reqs))
	for _, lr := range reqs {
		product, err := uc.Products.FindBySKU(ctx, lr.ProductSKU)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NotFoundf("Product not found")
		}
		line := &domain.OrderLine{OrderID: orderID, ProductSKU: product.SKUCode, Quantity: lr.Quantity}
		if _, err := uc.Lines.Create(ctx, line); err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}
