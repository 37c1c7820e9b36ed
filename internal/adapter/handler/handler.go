// Package handler exposes the REST and WebSocket surface of the service.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/adapter/broadcast"
	"github.com/rvishnu/stockdesk/internal/auth"
	"github.com/rvishnu/stockdesk/internal/core/service"
)

type Handler struct {
	products   *service.ProductService
	users      *service.UserService
	serializer *service.OrderSerializer
	tokens     *auth.TokenManager
	hub        *broadcast.Hub
	logger     *zap.Logger
}

func New(products *service.ProductService, users *service.UserService, serializer *service.OrderSerializer, tokens *auth.TokenManager, hub *broadcast.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		products:   products,
		users:      users,
		serializer: serializer,
		tokens:     tokens,
		hub:        hub,
		logger:     logger,
	}
}

// Router wires all routes. Product reads are public (the mobile app uses
// them); mutations and user management are admin-only.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.withRequestID, h.withLogging)

	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/orders", h.createOrder)
	r.Get("/ws", h.serveWS)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/category/{category}", h.productsByCategory)
		r.Get("/search/{query}", h.searchProducts)
		r.Get("/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/admin/all", h.listAllProducts)
			r.Post("/", h.createProduct)
			r.Put("/{id}", h.updateProduct)
			r.Patch("/{id}/stock", h.setStock)
			r.Patch("/{id}/toggle-status", h.toggleProduct)
			r.Delete("/{id}", h.deleteProduct)
			r.Delete("/{id}/permanent", h.permanentDeleteProduct)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/create-user", h.createUser)
		r.Get("/users", h.listUsers)
		r.Delete("/users/{id}", h.deleteUser)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}
