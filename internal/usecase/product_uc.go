package usecase

import (
	"context"
	"strings"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

type ProductUC struct {
	Products domain.ProductRepo
}

func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	existing, err := uc.FindBySKU(ctx, p.SKUCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflictf("Product with sku [%s] already exists", p.SKUCode)
	}
	if err := uc.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindBySKU returns nil when no product has the SKU.
func (uc *ProductUC) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return found(uc.Products.FindBySKU(ctx, sku))
}

func (uc *ProductUC) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	existing, err := uc.FindBySKU(ctx, p.SKUCode)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.NotFoundf("Product with sku [%s] not found", p.SKUCode)
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteBySKU refuses to remove a product that order lines still reference.
func (uc *ProductUC) DeleteBySKU(ctx context.Context, sku string) error {
	existing, err := uc.FindBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NotFoundf("Product with sku [%s] not found", sku)
	}
	n, err := uc.Products.CountOrderLines(ctx, sku)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflictf("Product with sku [%s] is referenced by %d order lines", sku, n)
	}
	return uc.Products.DeleteBySKU(ctx, sku)
}

func validateProduct(p *domain.Product) error {
	if p == nil {
		return domain.InvalidArgumentf("product is required")
	}
	p.SKUCode = strings.TrimSpace(p.SKUCode)
	if p.SKUCode == "" {
		return domain.InvalidArgumentf("sku code is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.InvalidArgumentf("name is required")
	}
	if p.UnitPrice.IsNegative() {
		return domain.InvalidArgumentf("unit price must not be negative")
	}
	// stored as decimal(12,2)
	p.UnitPrice = p.UnitPrice.Round(2)
	return nil
}
