package httpx

import (
	"time"

	cartpkg "github.com/Janetzy-GS18/Proyecto-PIA/internal/cart"
	catalogdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	customerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/domain"
	ledgerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting"
)

type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

type SetQuantityResponse struct {
	Quantity int  `json:"quantity"`
	Clamped  bool `json:"clamped"`
}

type SaleLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type SaleResponse struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	State      string             `json:"state"`
	Total      string             `json:"total"`
	CreatedAt  string             `json:"created_at"`
	Lines      []SaleLineResponse `json:"lines"`
}

type CustomerRequest struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Address string   `json:"address"`
	Phones  []string `json:"phones,omitempty"`
}

type CustomerResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Address string   `json:"address"`
	Phones  []string `json:"phones,omitempty"`
}

type PhoneRequest struct {
	Phone string `json:"phone"`
}

type SaleRowResponse struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Date     string `json:"date"`
	Total    string `json:"total"`
	State    string `json:"state"`
}

type RevenueResponse struct {
	Total string `json:"total"`
}

type ReceiptLineResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type ReceiptResponse struct {
	SaleID   string                `json:"sale_id"`
	State    string                `json:"state"`
	Date     string                `json:"date"`
	Customer string                `json:"customer"`
	Address  string                `json:"address"`
	Phones   []string              `json:"phones,omitempty"`
	Lines    []ReceiptLineResponse `json:"lines"`
	Total    string                `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapProduct(p *catalogdomain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
	}
}

func mapCart(v *cartpkg.View) CartResponse {
	out := CartResponse{
		Lines: make([]CartLineResponse, 0, len(v.Lines)),
		Total: v.Total.StringFixed(2),
	}
	for _, line := range v.Lines {
		out.Lines = append(out.Lines, CartLineResponse{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price.StringFixed(2),
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal.StringFixed(2),
		})
	}
	return out
}

func mapSale(s *ledgerdomain.Sale) SaleResponse {
	out := SaleResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		State:      string(s.State),
		Total:      s.Total.StringFixed(2),
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
		Lines:      make([]SaleLineResponse, 0, len(s.Lines)),
	}
	for _, line := range s.Lines {
		out.Lines = append(out.Lines, SaleLineResponse{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal.StringFixed(2),
		})
	}
	return out
}

func mapCustomer(c *customerdomain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		Address: c.Address,
		Phones:  c.Phones,
	}
}

func mapSaleRows(rows []reporting.SaleRow) []SaleRowResponse {
	out := make([]SaleRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, SaleRowResponse{
			ID:       row.ID,
			Customer: row.CustomerName,
			Date:     row.Date.UTC().Format(time.RFC3339),
			Total:    row.Total.StringFixed(2),
			State:    row.State,
		})
	}
	return out
}

func mapReceipt(rec *reporting.Receipt) ReceiptResponse {
	out := ReceiptResponse{
		SaleID:   rec.SaleID,
		State:    rec.State,
		Date:     rec.Date.UTC().Format(time.RFC3339),
		Customer: rec.CustomerName,
		Address:  rec.CustomerAddress,
		Phones:   rec.CustomerPhones,
		Lines:    make([]ReceiptLineResponse, 0, len(rec.Lines)),
		Total:    rec.Total.StringFixed(2),
	}
	for _, line := range rec.Lines {
		out.Lines = append(out.Lines, ReceiptLineResponse{
			Name:     line.ProductName,
			Quantity: line.Quantity,
			Subtotal: line.Subtotal.StringFixed(2),
		})
	}
	return out
}
