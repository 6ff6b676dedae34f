package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ordermgmt/ordersvc/internal/adapters/xlsx"
	"github.com/ordermgmt/ordersvc/internal/domain"
	"github.com/ordermgmt/ordersvc/internal/usecase"
)

const (
	apiPrefix    = "/api/v1"
	maxBodyBytes = 1 << 20
)

type Server struct {
	mux       *http.ServeMux
	customers *usecase.CustomerUC
	products  *usecase.ProductUC
	lines     *usecase.OrderLineUC
	orders    *usecase.OrderUC
	observer  RequestObserver
	limit     Middleware
}

type Option func(*Server)

// WithObserver records every request on obs.
func WithObserver(obs RequestObserver) Option {
	return func(s *Server) { s.observer = obs }
}

// WithRateLimit limits each client IP to rps requests per second with the
// given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limit = RateLimit(rps, burst)
		}
	}
}

// WithHandler mounts an extra handler, typically an operational endpoint,
// next to the API routes.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) { s.mux.Handle(pattern, h) }
}

func New(c *usecase.CustomerUC, p *usecase.ProductUC, l *usecase.OrderLineUC, o *usecase.OrderUC, opts ...Option) http.Handler {
	s := &Server{mux: http.NewServeMux(), customers: c, products: p, lines: l, orders: o}
	s.routes()
	for _, opt := range opts {
		opt(s)
	}

	mws := []Middleware{Recovery, RequestID, Logging}
	if s.limit != nil {
		mws = append(mws, s.limit)
	}
	if s.observer != nil {
		mws = append(mws, Observe(s.observer))
	}
	return Chain(s.mux, mws...)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST "+apiPrefix+"/customer", s.createCustomer)
	s.mux.HandleFunc("PUT "+apiPrefix+"/customer", s.updateCustomer)
	s.mux.HandleFunc("GET "+apiPrefix+"/customer/{code}", s.getCustomer)
	s.mux.HandleFunc("DELETE "+apiPrefix+"/customer/{code}", s.deleteCustomer)
	s.mux.HandleFunc("GET "+apiPrefix+"/customer/{code}/orders", s.ordersByCustomer)

	s.mux.HandleFunc("POST "+apiPrefix+"/product", s.createProduct)
	s.mux.HandleFunc("PUT "+apiPrefix+"/product", s.updateProduct)
	s.mux.HandleFunc("GET "+apiPrefix+"/product/{sku}", s.getProduct)
	s.mux.HandleFunc("DELETE "+apiPrefix+"/product/{sku}", s.deleteProduct)
	s.mux.HandleFunc("GET "+apiPrefix+"/product/{sku}/orders", s.ordersByProduct)

	s.mux.HandleFunc("POST "+apiPrefix+"/order", s.createOrder)
	s.mux.HandleFunc("PUT "+apiPrefix+"/order", s.updateOrder)
	s.mux.HandleFunc("GET "+apiPrefix+"/order/{id}", s.getOrder)
	s.mux.HandleFunc("DELETE "+apiPrefix+"/order/{id}", s.deleteOrder)
	s.mux.HandleFunc("GET "+apiPrefix+"/orders", s.ordersByDate)
	s.mux.HandleFunc("GET "+apiPrefix+"/orders/export", s.exportOrders)

	s.mux.HandleFunc("POST "+apiPrefix+"/order-line/{id}", s.updateOrderLine)
	s.mux.HandleFunc("GET "+apiPrefix+"/order-line/{id}", s.getOrderLine)
	s.mux.HandleFunc("DELETE "+apiPrefix+"/order-line/{id}", s.deleteOrderLine)
}

// customers

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	out, err := s.customers.Create(r.Context(), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	out, err := s.customers.Update(r.Context(), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	c, err := s.customers.FindByCode(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, r, domain.NotFoundf("Customer not found"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	if err := s.customers.DeleteByCode(r.Context(), code); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) ordersByCustomer(w http.ResponseWriter, r *http.Request) {
	code, ok := pathInt(w, r, "code")
	if !ok {
		return
	}
	list, err := s.orders.FindByCustomer(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ToDtos(list))
}

// products

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := req.Product()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.products.Create(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := req.Product()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.products.Update(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.FindBySKU(r.Context(), r.PathValue("sku"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, r, domain.NotFoundf("Product not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.products.DeleteBySKU(r.Context(), r.PathValue("sku")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) ordersByProduct(w http.ResponseWriter, r *http.Request) {
	list, err := s.orders.FindByProductSKU(r.Context(), r.PathValue("sku"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ToDtos(list))
}

// orders

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.orders.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o.ToDto())
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.orders.Update(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o.ToDto())
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	o, err := s.orders.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if o == nil {
		writeError(w, r, domain.NotFoundf("Order not found"))
		return
	}
	writeJSON(w, http.StatusOK, o.ToDto())
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := s.orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) ordersByDate(w http.ResponseWriter, r *http.Request) {
	d, err := requestDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.orders.FindByDate(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ToDtos(list))
}

func (s *Server) exportOrders(w http.ResponseWriter, r *http.Request) {
	d, err := requestDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.orders.FindByDate(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteOrders(&buf, list); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("date", d.String()).Msg("export orders")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "export failed"})
		return
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="orders-`+d.String()+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// order lines

func (s *Server) updateOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var quantity int
	if !decodeJSON(w, r, &quantity) {
		return
	}
	if err := s.lines.UpdateQuantity(r.Context(), id, quantity); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	l, err := s.lines.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if l == nil {
		writeError(w, r, domain.NotFoundf("Order line [%d] not found", id))
		return
	}
	writeJSON(w, http.StatusOK, domain.OrderLineDto{ID: l.ID, ProductSKU: l.ProductSKU, Quantity: l.Quantity})
}

func (s *Server) deleteOrderLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := s.lines.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// helpers

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers 404 for NotFound and 400 for everything else. Only
// domain error messages reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadRequest
	if domain.IsNotFound(err) {
		code = http.StatusNotFound
	}

	msg := err.Error()
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "request failed"
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			writeError(w, r, err)
			return false
		}
		writeError(w, r, domain.InvalidArgumentf("invalid request body: %v", err))
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, domain.InvalidArgumentf("invalid %s %q", name, raw))
		return 0, false
	}
	return n, true
}

// requestDate reads the date from ?date= or, failing that, from a JSON
// string body.
func requestDate(r *http.Request) (domain.Date, error) {
	if q := r.URL.Query().Get("date"); q != "" {
		return domain.ParseDate(q)
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.Date{}, domain.InvalidArgumentf("read body: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Date{}, domain.InvalidArgumentf("date is required")
	}
	var d domain.Date
	if err := json.Unmarshal(body, &d); err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return domain.Date{}, err
		}
		return domain.Date{}, domain.InvalidArgumentf("invalid date: %v", err)
	}
	if d.IsZero() {
		return domain.Date{}, domain.InvalidArgumentf("date is required")
	}
	return d, nil
}
