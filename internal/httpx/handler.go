package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/cart"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog"
	catalogdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	customerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/httpx/middlewares"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger"
	ledgerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting"
)

// Customers is the slice of the customer repository the HTTP surface needs.
type Customers interface {
	Create(ctx context.Context, c *customerdomain.Customer) error
	GetByID(ctx context.Context, id string) (*customerdomain.Customer, error)
	AddPhone(ctx context.Context, customerID, phone string) error
}

// Handler exposes the shop over HTTP. It maps requests onto the domain
// services and typed domain failures onto status codes; it holds no business
// rules of its own.
type Handler struct {
	products  *catalog.Service
	carts     *cart.Service
	ledger    *ledger.Service
	customers Customers
	reports   *reporting.Service
}

func NewHandler(
	products *catalog.Service,
	carts *cart.Service,
	ledger *ledger.Service,
	customers Customers,
	reports *reporting.Service,
) *Handler {
	return &Handler{
		products:  products,
		carts:     carts,
		ledger:    ledger,
		customers: customers,
		reports:   reports,
	}
}

// --- catalog ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, mapProduct(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapManageCatalog) {
		return
	}
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapManageCatalog) {
		return
	}
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.products.Update(r.Context(), p); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

// --- cart ---

func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.View(r.Context(), middlewares.SessionID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	delta := 1
	if r.Body != nil && r.ContentLength != 0 {
		var req QuantityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if req.Quantity != 0 {
			delta = req.Quantity
		}
	}

	sessionID := middlewares.SessionID(r.Context())
	if err := h.carts.Add(r.Context(), sessionID, chi.URLParam(r, "productID"), delta); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.ViewCart(w, r)
}

func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	sessionID := middlewares.SessionID(r.Context())
	quantity, clamped, err := h.carts.SetQuantity(r.Context(), sessionID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SetQuantityResponse{Quantity: quantity, Clamped: clamped})
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sessionID := middlewares.SessionID(r.Context())
	if err := h.carts.Remove(r.Context(), sessionID, chi.URLParam(r, "productID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- checkout and sales ---

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	customerID := middlewares.CustomerID(r.Context())
	if customerID == "" {
		writeError(w, http.StatusUnauthorized, "customer_required", "checkout requires a registered customer")
		return
	}

	sale, err := h.ledger.Checkout(r.Context(), customerID, middlewares.SessionID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "checkout completed",
		"sale_id", sale.ID, "customer_id", customerID, "total", sale.Total.StringFixed(2))
	writeJSON(w, http.StatusCreated, mapSale(sale))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSale(sale))
}

func (h *Handler) SaleHistory(w http.ResponseWriter, r *http.Request) {
	customerID := middlewares.CustomerID(r.Context())
	if customerID == "" {
		writeError(w, http.StatusUnauthorized, "customer_required", "")
		return
	}
	sales, err := h.ledger.History(r.Context(), customerID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]SaleResponse, 0, len(sales))
	for _, sale := range sales {
		out = append(out, mapSale(sale))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) VoidSale(w http.ResponseWriter, r *http.Request) {
	requester := middlewares.CustomerID(r.Context())
	admin := Role(middlewares.Role(r.Context())) == RoleAdmin
	if requester == "" && !admin {
		writeError(w, http.StatusUnauthorized, "customer_required", "")
		return
	}

	sale, err := h.ledger.Void(r.Context(), chi.URLParam(r, "id"), requester, admin)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "sale voided", "sale_id", sale.ID, "requester", requester)
	writeJSON(w, http.StatusOK, mapSale(sale))
}

func (h *Handler) WriteSaleLine(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapManageSales) {
		return
	}
	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	sale, err := h.ledger.WriteLine(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSale(sale))
}

func (h *Handler) DeleteSaleLine(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapManageSales) {
		return
	}
	sale, err := h.ledger.DeleteLine(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSale(sale))
}

// --- customers ---

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	c := &customerdomain.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Phones:  req.Phones,
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCustomer(c))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCustomer(c))
}

func (h *Handler) AddCustomerPhone(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.customers.AddPhone(r.Context(), chi.URLParam(r, "id"), req.Phone); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reporting ---

func (h *Handler) ListSalesReport(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapViewReports) {
		return
	}
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.ListSales(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSaleRows(rows))
}

func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapViewReports) {
		return
	}
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	total, err := h.reports.RevenueTotal(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RevenueResponse{Total: total.StringFixed(2)})
}

func (h *Handler) ExportSalesCSV(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, CapViewReports) {
		return
	}
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
	if err := h.reports.WriteCSV(r.Context(), w, filter); err != nil {
		// Headers may already be out; log instead of writing a JSON error
		// into the middle of a CSV body.
		slog.ErrorContext(r.Context(), "csv export failed", "error", err)
	}
}

func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.reports.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReceipt(rec))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

// require enforces the role policy and writes a 403 when the caller's role
// does not grant the capability.
func (h *Handler) require(w http.ResponseWriter, r *http.Request, cap Capability) bool {
	role := Role(middlewares.Role(r.Context()))
	if !Allow(role, cap) {
		writeError(w, http.StatusForbidden, "forbidden", "role does not permit this operation")
		return false
	}
	return true
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (*catalogdomain.Product, bool) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return nil, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_price", err.Error())
		return nil, false
	}
	return &catalogdomain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
	}, true
}

func parseFilter(w http.ResponseWriter, r *http.Request) (reporting.Filter, bool) {
	var filter reporting.Filter
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", err.Error())
			return filter, false
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", err.Error())
			return filter, false
		}
		filter.To = t
	}
	if q.Get("exclude_voided") == "true" || q.Get("exclude_voided") == "1" {
		filter.ExcludeState = string(ledgerdomain.StateVoided)
	}
	filter.CustomerID = q.Get("customer_id")
	return filter, true
}

// writeDomainError translates the ledger/catalog error taxonomy into HTTP
// statuses. Unknown errors become 500s and are logged with their trace.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *catalogdomain.InsufficientStockError

	switch {
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, "insufficient_stock", insufficient.Error())
	case errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, ledgerdomain.ErrSaleNotFound),
		errors.Is(err, ledgerdomain.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, customerdomain.ErrCustomerNotFound):
		writeError(w, http.StatusUnprocessableEntity, "customer_not_found", err.Error())
	case errors.Is(err, ledgerdomain.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, ledgerdomain.ErrAlreadyVoided),
		errors.Is(err, ledgerdomain.ErrSaleVoided):
		writeError(w, http.StatusConflict, "sale_voided", err.Error())
	case errors.Is(err, ledgerdomain.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
