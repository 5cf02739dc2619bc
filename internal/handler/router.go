package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/inventory-orders/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.Metrics(h.metrics))
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.GzipMiddleware)

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Post("/refresh", h.RefreshCatalog)

			r.Get("/products", h.ListProducts)
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/suppliers", h.ListSuppliers)
			r.Post("/suppliers", h.CreateSupplier)
			r.Put("/suppliers/{id}", h.UpdateSupplier)
			r.Delete("/suppliers/{id}", h.DeleteSupplier)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.session.Middleware)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{number}", h.GetOrder)
			r.Post("/orders/receipt", h.ReceiveReceipt)
			r.Get("/orders/{number}/receipt", h.OrderReceipt)
			r.Post("/orders/{number}/payment", h.PaySupplier)

			r.Get("/bank-accounts", h.ListBankAccounts)
			r.Post("/bank-accounts", h.CreateBankAccount)
			r.Put("/bank-accounts/{id}", h.UpdateBankAccount)
			r.Delete("/bank-accounts/{id}", h.DeleteBankAccount)

			r.Get("/payments", h.ListPayments)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
