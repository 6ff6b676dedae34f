package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

type OrderLineRepo struct{ db *gorm.DB }

func NewOrderLineRepo(db *gorm.DB) *OrderLineRepo { return &OrderLineRepo{db: db} }

// Create never writes the referenced product; it must already exist.
func (r *OrderLineRepo) Create(ctx context.Context, l *domain.OrderLine) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Create(l).Error, "order line")
}

func (r *OrderLineRepo) Save(ctx context.Context, l *domain.OrderLine) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(l).Error, "order line")
}

func (r *OrderLineRepo) FindByID(ctx context.Context, id int64) (*domain.OrderLine, error) {
	var l domain.OrderLine
	if err := conn(ctx, r.db).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err, "order line")
	}
	return &l, nil
}

func (r *OrderLineRepo) DeleteByID(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&domain.OrderLine{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "order line")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("order line [%d] not found", id)
	}
	return nil
}

func (r *OrderLineRepo) DeleteByOrderID(ctx context.Context, orderID int64) error {
	return translate(conn(ctx, r.db).Where("order_id = ?", orderID).Delete(&domain.OrderLine{}).Error, "order line")
}

var _ domain.OrderLineRepo = (*OrderLineRepo)(nil)
