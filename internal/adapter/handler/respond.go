package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/rvishnu/stockdesk/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// respondProductError maps the domain taxonomy onto the product endpoints'
// status codes and messages.
func (h *Handler) respondProductError(w http.ResponseWriter, err error) {
	var dup *domain.DuplicateKeyError
	switch {
	case errors.As(err, &dup):
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Product with this %s already exists", dup.Field))
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrProductUnavailable):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Product not found")
	default:
		h.logger.Error("product request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func (h *Handler) respondUserError(w http.ResponseWriter, err error) {
	var dup *domain.DuplicateKeyError
	switch {
	case errors.As(err, &dup):
		writeMessage(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, domain.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error("user request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}
