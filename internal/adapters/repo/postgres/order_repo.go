package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

// OrderRepo is the key based order store. Its finder methods are written as
// query-by-template: conditions come from partially filled domain structs.
type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func linesByID(db *gorm.DB) *gorm.DB { return db.Order("id asc") }

// Create stores the order row only; lines are written by the order line
// store.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Create(o).Error, "order")
}

func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(o).Error, "order")
}

func (r *OrderRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := conn(ctx, r.db).Preload("Lines", linesByID).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &o, nil
}

func (r *OrderRepo) DeleteByID(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&domain.Order{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "order")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("order not found")
	}
	return nil
}

func (r *OrderRepo) FindByDate(ctx context.Context, d domain.Date) ([]domain.Order, error) {
	return r.findByTemplate(ctx, &domain.Order{DateOfSubmission: d}, "DateOfSubmission")
}

func (r *OrderRepo) FindOrdersByCustomerCode(ctx context.Context, code int64) ([]domain.Order, error) {
	return r.findByTemplate(ctx, &domain.Order{CustomerCode: code}, "CustomerCode")
}

func (r *OrderRepo) FindOrdersByProductSKU(ctx context.Context, sku string) ([]domain.Order, error) {
	db := conn(ctx, r.db)
	lines := db.Model(&domain.OrderLine{}).
		Select("order_id").
		Where(&domain.OrderLine{ProductSKU: sku}, "ProductSKU")
	var list []domain.Order
	if err := db.Preload("Lines", linesByID).Where("id IN (?)", lines).Order("id asc").Find(&list).Error; err != nil {
		return nil, translate(err, "order")
	}
	return list, nil
}

// findByTemplate matches the named fields of tmpl, zero values included.
func (r *OrderRepo) findByTemplate(ctx context.Context, tmpl *domain.Order, fields ...any) ([]domain.Order, error) {
	var list []domain.Order
	if err := conn(ctx, r.db).Preload("Lines", linesByID).Where(tmpl, fields...).Order("id asc").Find(&list).Error; err != nil {
		return nil, translate(err, "order")
	}
	return list, nil
}

var (
	_ domain.OrderRepo   = (*OrderRepo)(nil)
	_ domain.OrderFinder = (*OrderRepo)(nil)
)
