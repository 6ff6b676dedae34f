package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Product struct {
	SKUCode   string          `gorm:"column:sku_code;primaryKey;size:120" json:"skuCode"`
	Name      string          `gorm:"size:180;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unitPrice"`
}

func (Product) TableName() string { return "product" }

// MarshalJSON writes unitPrice as a JSON number.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		UnitPrice json.Number `json:"unitPrice"`
	}{plain(p), json.Number(p.UnitPrice.String())})
}

// ProductRequest is the create/update body. UnitPrice is nullable so an
// omitted price can be told apart from zero.
type ProductRequest struct {
	SKUCode   string              `json:"skuCode"`
	Name      string              `json:"name"`
	UnitPrice decimal.NullDecimal `json:"unitPrice"`
}

func (r ProductRequest) Product() (*Product, error) {
	if !r.UnitPrice.Valid {
		return nil, InvalidArgumentf("unit price is required")
	}
	return &Product{SKUCode: r.SKUCode, Name: r.Name, UnitPrice: r.UnitPrice.Decimal}, nil
}
