package domain

type Order struct {
	ID               int64       `gorm:"primaryKey;autoIncrement"`
	CustomerCode     int64       `gorm:"column:customer_registration_code;not null;index"`
	DateOfSubmission Date        `gorm:"column:date_of_submission;not null;index"`
	Lines            []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

// OrderLine belongs to exactly one order and references exactly one product.
// Product is only populated when explicitly preloaded.
type OrderLine struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64   `gorm:"column:order_id;not null;index" json:"-"`
	ProductSKU string  `gorm:"column:product_sku_code;size:120;not null;index" json:"productSkuCode"`
	Product    Product `gorm:"foreignKey:ProductSKU;references:SKUCode;constraint:OnDelete:RESTRICT" json:"-"`
	Quantity   int     `gorm:"not null;check:chk_order_line_quantity,quantity > 0" json:"quantity"`
}

func (OrderLine) TableName() string { return "order_line" }

type OrderLineRequest struct {
	ProductSKU string `json:"productSkuCode"`
	Quantity   int    `json:"quantity"`
}

// OrderCreateRequest is used both for creation and for updates; ID is only
// meaningful on update.
type OrderCreateRequest struct {
	ID               int64              `json:"id,omitempty"`
	CustomerCode     int64              `json:"customerCode"`
	DateOfSubmission Date               `json:"dateOfSubmission"`
	Lines            []OrderLineRequest `json:"orderLines"`
}

type OrderLineDto struct {
	ID         int64  `json:"id"`
	ProductSKU string `json:"productSkuCode"`
	Quantity   int    `json:"quantity"`
}

// OrderDto is the flattened read view returned by the API instead of the
// relational order graph.
type OrderDto struct {
	ID               int64          `json:"id"`
	CustomerCode     int64          `json:"customerCode"`
	DateOfSubmission Date           `json:"dateOfSubmission"`
	Lines            []OrderLineDto `json:"orderLines"`
}

func (o Order) ToDto() OrderDto {
	lines := make([]OrderLineDto, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineDto{ID: l.ID, ProductSKU: l.ProductSKU, Quantity: l.Quantity})
	}
	return OrderDto{
		ID:               o.ID,
		CustomerCode:     o.CustomerCode,
		DateOfSubmission: o.DateOfSubmission,
		Lines:            lines,
	}
}

func ToDtos(orders []Order) []OrderDto {
	out := make([]OrderDto, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ToDto())
	}
	return out
}
