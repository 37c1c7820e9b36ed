package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rvishnu/stockdesk/internal/core/service"
)

type createProductRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             *float64 `json:"price"`
	Stock             *int     `json:"stock"`
	Category          string   `json:"category"`
	SKU               string   `json:"sku"`
	LowStockThreshold *int     `json:"lowStockThreshold"`
}

type updateProductRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price"`
	Stock             *int     `json:"stock"`
	Category          *string  `json:"category"`
	SKU               *string  `json:"sku"`
	LowStockThreshold *int     `json:"lowStockThreshold"`
	IsActive          *bool    `json:"isActive"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListActive(r.Context())
	if err != nil {
		h.respondProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) listAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAll(r.Context())
	if err != nil {
		h.respondProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) productsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.respondProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		h.respondProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Price == nil || req.Stock == nil {
		writeMessage(w, http.StatusBadRequest, "Name, price, and stock are required")
		return
	}

	p, err := h.products.Create(r.Context(), service.CreateProductInput{
		Name:              req.Name,
		Description:       req.Description,
		Price:             *req.Price,
		Stock:             *req.Stock,
		Category:          req.Category,
		SKU:               req.SKU,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		h.respondProductError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": p,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateProductInput{
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		Stock:             req.Stock,
		Category:          req.Category,
		SKU:               req.SKU,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
	})
	if err != nil {
		h.respondProductError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": p,
	})
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Stock == nil || *req.Stock < 0 {
		writeMessage(w, http.StatusBadRequest, "Valid stock quantity is required")
		return
	}

	p, oldStock, err := h.products.SetStock(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		h.respondProductError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Stock updated successfully",
		"product":  p,
		"oldStock": oldStock,
		"newStock": p.Stock,
	})
}

func (h *Handler) toggleProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondProductError(w, err)
		return
	}

	msg := "Product deactivated successfully"
	if p.IsActive {
		msg = "Product activated successfully"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": msg,
		"product": p,
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.SoftDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondProductError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product deleted successfully",
		"product": p,
	})
}

func (h *Handler) permanentDeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.HardDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondProductError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product permanently deleted",
		"product": p,
	})
}
