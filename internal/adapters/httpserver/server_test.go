package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/ordermgmt/ordersvc/internal/adapters/httpserver"
	"github.com/ordermgmt/ordersvc/internal/adapters/repo/postgres"
	"github.com/ordermgmt/ordersvc/internal/adapters/repo/postgres/dbtest"
	"github.com/ordermgmt/ordersvc/internal/adapters/xlsx"
	"github.com/ordermgmt/ordersvc/internal/domain"
	"github.com/ordermgmt/ordersvc/internal/usecase"
)

type observation struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu  sync.Mutex
	got []observation
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, observation{method: method, route: route, status: status})
}

func newTestServer(t *testing.T) (http.Handler, []domain.Order, *recordingObserver) {
	t.Helper()
	db := dbtest.Open(t)
	seeded := dbtest.Seed(t, db)
	h, obs := newServer(db)
	return h, seeded, obs
}

func newServer(db *gorm.DB) (http.Handler, *recordingObserver) {
	customers := &usecase.CustomerUC{Customers: postgres.NewCustomerRepo(db)}
	products := &usecase.ProductUC{Products: postgres.NewProductRepo(db)}
	lines := &usecase.OrderLineUC{Lines: postgres.NewOrderLineRepo(db)}
	orders := &usecase.OrderUC{
		Orders:    postgres.NewOrderRepo(db),
		Finder:    postgres.NewCriteriaOrderFinder(db),
		Tx:        postgres.NewTransactor(db),
		Customers: customers,
		Products:  products,
		Lines:     lines,
	}

	obs := &recordingObserver{}
	h := httpserver.New(customers, products, lines, orders,
		httpserver.WithObserver(obs),
		httpserver.WithHandler("GET /boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })),
	)
	return h, obs
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func decodeOrders(t *testing.T, rec *httptest.ResponseRecorder) []domain.OrderDto {
	t.Helper()
	var out []domain.OrderDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCustomerRoutes(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/customer", `{"registrationCode":10,"fullName":"Ada","email":"a@x","telephone":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"registrationCode":10,"fullName":"Ada","email":"a@x","telephone":"1"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/customer", `{"registrationCode":10,"fullName":"Dup","email":"d","telephone":"2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Customer with id [10] already exists", errorMessage(t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/customer/10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Ada"`)

	rec = do(t, h, http.MethodPut, "/api/v1/customer", `{"registrationCode":10,"fullName":"Ada L","email":"a@x","telephone":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Ada L"`)

	rec = do(t, h, http.MethodPut, "/api/v1/customer", `{"registrationCode":404,"fullName":"x","email":"x","telephone":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/v1/customer/10", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/customer/10", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/customer/10", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/customer/abc", "").Code)
}

func TestCustomerOrdersRoute(t *testing.T) {
	h, seeded, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/customer/2/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeOrders(t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, seeded[1].ID, got[0].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/customer/77/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestProductRoutes(t *testing.T) {
	h, seeded, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/product", `{"skuCode":"S9","name":"Bolt","unitPrice":"2.50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"unitPrice":2.5`)

	rec = do(t, h, http.MethodGet, "/api/v1/product/S9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"skuCode":"S9","name":"Bolt","unitPrice":2.5}`, rec.Body.String())
	var p domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Bolt", p.Name)
	assert.Equal(t, "2.5", p.UnitPrice.String())

	rec = do(t, h, http.MethodPost, "/api/v1/product", `{"skuCode":"S9","name":"again","unitPrice":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Product with sku [S9] already exists", errorMessage(t, rec))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/v1/product", `{"skuCode":"none","name":"x","unitPrice":1}`).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/api/v1/product", `{"skuCode":"S9","name":"Big bolt","unitPrice":3}`).Code)

	// referenced by an order line
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/v1/product/skuCode1", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/v1/product/S9", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/product/S9", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/product/S9", "").Code)

	rec = do(t, h, http.MethodGet, "/api/v1/product/skuCode3/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeOrders(t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, seeded[2].ID, got[0].ID)
}

func TestRequiredAttributes(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		message string
	}{
		{name: "customer without attributes", path: "/api/v1/customer", body: `{"registrationCode":42}`, message: "full name is required"},
		{name: "customer without email", path: "/api/v1/customer", body: `{"registrationCode":42,"fullName":"Ada","telephone":"1"}`, message: "email is required"},
		{name: "customer without telephone", path: "/api/v1/customer", body: `{"registrationCode":42,"fullName":"Ada","email":"a@x"}`, message: "telephone is required"},
		{name: "product without price", path: "/api/v1/product", body: `{"skuCode":"P2","name":"Nut"}`, message: "unit price is required"},
		{name: "product with null price", path: "/api/v1/product", body: `{"skuCode":"P2","name":"Nut","unitPrice":null}`, message: "unit price is required"},
		{name: "product without name", path: "/api/v1/product", body: `{"skuCode":"P2","unitPrice":1}`, message: "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestServer(t)
			for _, method := range []string{http.MethodPost, http.MethodPut} {
				rec := do(t, h, method, tt.path, tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code, method)
				assert.Equal(t, tt.message, errorMessage(t, rec), method)
			}
			assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/customer/42", "").Code)
			assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/product/P2", "").Code)
		})
	}
}

func TestProductPriceIsRounded(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/product", `{"skuCode":"R1","name":"Washer","unitPrice":1.005}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"unitPrice":1.01`)

	rec = do(t, h, http.MethodGet, "/api/v1/product/R1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unitPrice":1.01`)
}

func TestStoreFailureHidesDetails(t *testing.T) {
	db := dbtest.Open(t)
	h, _ := newServer(db)
	require.NoError(t, postgres.Close(db))

	rec := do(t, h, http.MethodGet, "/api/v1/customer/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request failed", errorMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), "closed")
}

func TestOrderRoutes(t *testing.T) {
	h, seeded, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/order", `{
		"customerCode": 1,
		"dateOfSubmission": "2024-06-01",
		"orderLines": [{"productSkuCode": "skuCode2", "quantity": 3}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created domain.OrderDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.EqualValues(t, 1, created.CustomerCode)
	assert.Equal(t, "2024-06-01", created.DateOfSubmission.String())
	require.Len(t, created.Lines, 1)
	assert.Equal(t, "skuCode2", created.Lines[0].ProductSKU)

	id := strconv.FormatInt(created.ID, 10)
	rec = do(t, h, http.MethodGet, "/api/v1/order/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.OrderDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created, fetched)

	rec = do(t, h, http.MethodPut, "/api/v1/order", `{"id": `+id+`, "customerCode": 2, "dateOfSubmission": "2024-06-02", "orderLines": []}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.OrderDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.EqualValues(t, 2, updated.CustomerCode)
	assert.Empty(t, updated.Lines)

	rec = do(t, h, http.MethodPut, "/api/v1/order", `{"id": 99999, "customerCode": 1, "dateOfSubmission": "2024-06-02"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", errorMessage(t, rec))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/v1/order/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/order/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/order/"+id, "").Code)

	rec = do(t, h, http.MethodGet, "/api/v1/order/"+strconv.FormatInt(seeded[0].ID, 10), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrderFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{
			name:    "unknown customer",
			body:    `{"customerCode": 99, "dateOfSubmission": "2024-01-01", "orderLines": []}`,
			code:    http.StatusNotFound,
			message: "Customer not found",
		},
		{
			name:    "unknown product",
			body:    `{"customerCode": 1, "dateOfSubmission": "2024-01-01", "orderLines": [{"productSkuCode": "nope", "quantity": 1}]}`,
			code:    http.StatusNotFound,
			message: "Product not found",
		},
		{
			name:    "zero quantity",
			body:    `{"customerCode": 1, "dateOfSubmission": "2024-01-01", "orderLines": [{"productSkuCode": "skuCode1", "quantity": 0}]}`,
			code:    http.StatusBadRequest,
			message: "Quantity must be greater than 0",
		},
		{
			name: "bad date",
			body: `{"customerCode": 1, "dateOfSubmission": "01/01/2024"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "malformed json",
			body: `{"customerCode":`,
			code: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestServer(t)
			rec := do(t, h, http.MethodPost, "/api/v1/order", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			msg := errorMessage(t, rec)
			if tt.message != "" {
				assert.Equal(t, tt.message, msg)
			}

			rec = do(t, h, http.MethodGet, "/api/v1/orders?date=2024-01-01", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, decodeOrders(t, rec))
		})
	}
}

func TestOrdersByDate(t *testing.T) {
	h, seeded, _ := newTestServer(t)

	for i, d := range []string{"2021-01-01", "2022-02-02", "2023-03-03"} {
		rec := do(t, h, http.MethodGet, "/api/v1/orders", `"`+d+`"`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decodeOrders(t, rec)
		require.Len(t, got, 1, d)
		assert.Equal(t, seeded[i].ID, got[0].ID)
		assert.Equal(t, d, got[0].DateOfSubmission.String())
	}

	rec := do(t, h, http.MethodGet, "/api/v1/orders?date=2022-02-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeOrders(t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders", `"2021-13-01"`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders?date=tomorrow", "").Code)
}

func TestExportOrders(t *testing.T) {
	h, seeded, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/orders/export?date=2021-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsx.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "orders-2021-01-01.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsx.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, strconv.FormatInt(seeded[0].ID, 10), rows[1][0])
	assert.Equal(t, "skuCode1", rows[1][4])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders/export", "").Code)
}

func TestOrderLineRoutes(t *testing.T) {
	h, seeded, _ := newTestServer(t)
	id := strconv.FormatInt(seeded[0].Lines[0].ID, 10)

	rec := do(t, h, http.MethodGet, "/api/v1/order-line/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":`+id+`,"productSkuCode":"skuCode1","quantity":1}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/order-line/"+id, `5`).Code)
	rec = do(t, h, http.MethodGet, "/api/v1/order-line/"+id, "")
	assert.Contains(t, rec.Body.String(), `"quantity":5`)

	rec = do(t, h, http.MethodPost, "/api/v1/order-line/"+id, `0`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be greater than 0", errorMessage(t, rec))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/order-line/99999", `1`).Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/v1/order-line/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/order-line/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/order-line/"+id, "").Code)
}

func TestMiddleware(t *testing.T) {
	h, _, obs := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customer/1", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/api/v1/customer/2", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", errorMessage(t, rec))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nowhere", "").Code)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.GreaterOrEqual(t, len(obs.got), 2)
	assert.Equal(t, observation{method: http.MethodGet, route: "GET /api/v1/customer/{code}", status: http.StatusOK}, obs.got[0])
	assert.Equal(t, observation{method: http.MethodGet, route: "unmatched", status: http.StatusNotFound}, obs.got[len(obs.got)-1])
}
