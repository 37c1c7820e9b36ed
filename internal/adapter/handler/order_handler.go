package handler

import (
	"encoding/json"
	"net/http"
)

type createOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// createOrder submits the request to the order serializer and blocks until
// it has been processed in FIFO order.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := h.serializer.Submit(r.Context(), req.ProductID, req.Quantity)
	if res.Err != nil {
		h.respondProductError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Order placed successfully",
		"order":          res.Order,
		"product":        res.Product,
		"remainingStock": res.RemainingStock,
	})
}
