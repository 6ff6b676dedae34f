package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Create(c).Error, "customer")
}

func (r *CustomerRepo) Save(ctx context.Context, c *domain.Customer) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(c).Error, "customer")
}

func (r *CustomerRepo) FindByCode(ctx context.Context, code int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := conn(ctx, r.db).First(&c, "registration_code = ?", code).Error; err != nil {
		return nil, translate(err, "customer")
	}
	return &c, nil
}

// DeleteByCode relies on the orders foreign key cascade to remove the
// customer's orders and their lines.
func (r *CustomerRepo) DeleteByCode(ctx context.Context, code int64) error {
	res := conn(ctx, r.db).Delete(&domain.Customer{}, "registration_code = ?", code)
	if res.Error != nil {
		return translate(res.Error, "customer")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("customer not found")
	}
	return nil
}

var _ domain.CustomerRepo = (*CustomerRepo)(nil)
