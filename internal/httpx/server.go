package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ndetkov/go-shop-core/internal/store"
	"go.uber.org/zap"
)

type Handler struct {
	store *store.Store
	log   *zap.Logger
}

func NewRouter(s *store.Store, log *zap.Logger) *chi.Mux {
	h := &Handler{store: s, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/order-statuses", h.listOrderStatuses)

	// Tenant resolution is an upstream concern; these routes trust the
	// tenant id delivered in the X-Tenant-ID header.
	r.Group(func(r chi.Router) {
		r.Use(requireTenant)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{id}", h.getOrder)
			r.Delete("/{id}", h.deleteOrder)
			r.Patch("/{id}/status", h.updateOrderStatus)
			r.Post("/{id}/cancel", h.cancelOrder)
			r.Post("/{id}/payment", h.processOrderPayment)
			r.Get("/{id}/items", h.listOrderItems)
			r.Post("/{id}/items", h.addOrderItem)
		})

		r.Route("/order-items", func(r chi.Router) {
			r.Get("/{id}", h.getOrderItem)
			r.Put("/{id}", h.updateOrderItem)
			r.Delete("/{id}", h.deleteOrderItem)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.createProduct)
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
		})

		r.Post("/customers", h.createCustomer)
		r.Post("/addresses", h.createAddress)
	})

	return r
}
