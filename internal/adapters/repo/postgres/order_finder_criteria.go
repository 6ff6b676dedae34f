package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

var (
	ordersID           = clause.Column{Table: "orders", Name: "id"}
	ordersCustomerCode = clause.Column{Table: "orders", Name: "customer_registration_code"}
	lineOrderID        = clause.Column{Table: "order_line", Name: "order_id"}
	lineProductSKU     = clause.Column{Table: "order_line", Name: "product_sku_code"}
)

// CriteriaOrderFinder builds its queries programmatically from gorm clause
// expressions instead of struct templates.
type CriteriaOrderFinder struct{ db *gorm.DB }

func NewCriteriaOrderFinder(db *gorm.DB) *CriteriaOrderFinder {
	return &CriteriaOrderFinder{db: db}
}

func (f *CriteriaOrderFinder) FindOrdersByProductSKU(ctx context.Context, sku string) ([]domain.Order, error) {
	join := clause.Join{
		Type:  clause.InnerJoin,
		Table: clause.Table{Name: "order_line"},
		ON:    clause.Where{Exprs: []clause.Expression{clause.Eq{Column: lineOrderID, Value: ordersID}}},
	}
	return f.find(ctx,
		[]clause.Expression{clause.Eq{Column: lineProductSKU, Value: sku}},
		clause.From{Joins: []clause.Join{join}},
	)
}

func (f *CriteriaOrderFinder) FindOrdersByCustomerCode(ctx context.Context, code int64) ([]domain.Order, error) {
	return f.find(ctx, []clause.Expression{clause.Eq{Column: ordersCustomerCode, Value: code}})
}

func (f *CriteriaOrderFinder) find(ctx context.Context, predicates []clause.Expression, extra ...clause.Expression) ([]domain.Order, error) {
	clauses := append([]clause.Expression{clause.Where{Exprs: predicates}}, extra...)
	var list []domain.Order
	err := conn(ctx, f.db).
		Model(&domain.Order{}).
		Distinct("orders.*").
		Clauses(clauses...).
		Order(clause.OrderByColumn{Column: ordersID}).
		Preload("Lines", linesByID).
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "order")
	}
	return list, nil
}

var _ domain.OrderFinder = (*CriteriaOrderFinder)(nil)
