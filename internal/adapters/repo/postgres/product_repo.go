package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return translate(conn(ctx, r.db).Create(p).Error, "product")
}

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	return translate(conn(ctx, r.db).Save(p).Error, "product")
}

func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var p domain.Product
	if err := conn(ctx, r.db).First(&p, "sku_code = ?", sku).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

func (r *ProductRepo) DeleteBySKU(ctx context.Context, sku string) error {
	res := conn(ctx, r.db).Delete(&domain.Product{}, "sku_code = ?", sku)
	if res.Error != nil {
		return translate(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("product not found")
	}
	return nil
}

func (r *ProductRepo) CountOrderLines(ctx context.Context, sku string) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&domain.OrderLine{}).Where("product_sku_code = ?", sku).Count(&n).Error; err != nil {
		return 0, translate(err, "order line")
	}
	return n, nil
}

var _ domain.ProductRepo = (*ProductRepo)(nil)
