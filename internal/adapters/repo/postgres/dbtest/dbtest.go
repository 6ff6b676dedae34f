// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ordermgmt/ordersvc/internal/adapters/repo/postgres"
	"github.com/ordermgmt/ordersvc/internal/domain"
)

// Open returns a fresh SQLite database with the schema applied. It is
// closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := postgres.Open(context.Background(), postgres.Options{
		Driver: postgres.DriverSQLite,
		DSN:    ":memory:",
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = postgres.Close(db) })

	require.NoError(t, postgres.Migrate(db))
	return db
}

// Seed inserts three customers (1..3), three products (skuCode1..3) and
// one order per customer dated 2021-01-01, 2022-02-02 and 2023-03-03, each
// with a single line for the product of the same index.
func Seed(t testing.TB, db *gorm.DB) []domain.Order {
	t.Helper()

	dates := []domain.Date{
		domain.NewDate(2021, 1, 1),
		domain.NewDate(2022, 2, 2),
		domain.NewDate(2023, 3, 3),
	}
	orders := make([]domain.Order, 0, len(dates))
	for i, d := range dates {
		n := int64(i + 1)
		suffix := strconv.FormatInt(n, 10)
		sku := "skuCode" + suffix
		require.NoError(t, db.Create(&domain.Customer{
			RegistrationCode: n,
			FullName:         "fullName" + suffix,
			Email:            "email" + suffix,
			Telephone:        "telephone" + suffix,
		}).Error)
		require.NoError(t, db.Create(&domain.Product{
			SKUCode:   sku,
			Name:      "name" + suffix,
			UnitPrice: decimal.NewFromInt(n),
		}).Error)

		o := domain.Order{CustomerCode: n, DateOfSubmission: d}
		require.NoError(t, db.Omit("Lines").Create(&o).Error)
		line := domain.OrderLine{OrderID: o.ID, ProductSKU: sku, Quantity: int(n)}
		require.NoError(t, db.Omit("Product").Create(&line).Error)
		o.Lines = []domain.OrderLine{line}
		orders = append(orders, o)
	}
	return orders
}
