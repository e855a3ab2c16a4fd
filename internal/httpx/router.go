// Package httpx is the HTTP presentation layer: routing, DTO mapping, the
// session middleware and the role policy consulted by handlers.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Session)

	r.Get("/healthz", handler.Health)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Post("/", handler.CreateProduct)
		r.Get("/{id}", handler.GetProduct)
		r.Put("/{id}", handler.UpdateProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.ViewCart)
		r.Post("/items/{productID}", handler.AddToCart)
		r.Put("/items/{productID}", handler.SetCartQuantity)
		r.Delete("/items/{productID}", handler.RemoveFromCart)
	})

	r.Post("/checkout", handler.Checkout)

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", handler.SaleHistory)
		r.Get("/{id}", handler.GetSale)
		r.Post("/{id}/void", handler.VoidSale)
		r.Get("/{id}/receipt", handler.Receipt)
		r.Put("/{id}/lines/{productID}", handler.WriteSaleLine)
		r.Delete("/{id}/lines/{productID}", handler.DeleteSaleLine)
	})

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", handler.CreateCustomer)
		r.Get("/{id}", handler.GetCustomer)
		r.Post("/{id}/phones", handler.AddCustomerPhone)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/sales", handler.ListSalesReport)
		r.Get("/sales.csv", handler.ExportSalesCSV)
		r.Get("/revenue", handler.Revenue)
	})

	return r
}
