package domain

import "context"

// Repositories return ErrNotFound (possibly wrapped) when the keyed record is
// absent and ErrConflict when the store rejects a write on a unique or
// foreign key.

type CustomerRepo interface {
	Create(ctx context.Context, c *Customer) error
	Save(ctx context.Context, c *Customer) error
	FindByCode(ctx context.Context, code int64) (*Customer, error)
	DeleteByCode(ctx context.Context, code int64) error
}

type ProductRepo interface {
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	DeleteBySKU(ctx context.Context, sku string) error
	CountOrderLines(ctx context.Context, sku string) (int64, error)
}

type OrderLineRepo interface {
	Create(ctx context.Context, l *OrderLine) error
	Save(ctx context.Context, l *OrderLine) error
	FindByID(ctx context.Context, id int64) (*OrderLine, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteByOrderID(ctx context.Context, orderID int64) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	DeleteByID(ctx context.Context, id int64) error
	FindByDate(ctx context.Context, d Date) ([]Order, error)
}

// OrderFinder is the relation-based lookup pair. Implementations differ only
// in how they build the query and must return the same orders.
type OrderFinder interface {
	FindOrdersByProductSKU(ctx context.Context, sku string) ([]Order, error)
	FindOrdersByCustomerCode(ctx context.Context, code int64) ([]Order, error)
}

// Transactor runs fn in a single unit of work. Repositories pick the
// transaction up from the context passed to fn.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
