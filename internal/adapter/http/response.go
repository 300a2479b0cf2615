package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

// Error codes carried in ErrorResponse.Code. Clients map them back onto the
// domain errors with ErrorForCode.
const (
	CodeInvalidOrder      = "invalid_order"
	CodeEmptyOrder        = "empty_order"
	CodeInvalidQuantity   = "invalid_quantity"
	CodeUnknownItem       = "unknown_item"
	CodeInsufficientStock = "insufficient_stock"
	CodeDuplicateOrder    = "duplicate_order"
	CodeUnavailable       = "service_unavailable"
	CodeTimeout           = "timeout"
	CodeValidation        = "validation_failed"
	CodeInternal          = "internal"
)

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrInsufficientStock, CodeInsufficientStock, http.StatusConflict},
	{domain.ErrDuplicateOrder, CodeDuplicateOrder, http.StatusConflict},
	{domain.ErrUnknownItem, CodeUnknownItem, http.StatusBadRequest},
	{domain.ErrInvalidQuantity, CodeInvalidQuantity, http.StatusBadRequest},
	{domain.ErrEmptyOrder, CodeEmptyOrder, http.StatusBadRequest},
	{domain.ErrInvalidOrder, CodeInvalidOrder, http.StatusBadRequest},
	{interfaces.ErrServiceUnavailable, CodeUnavailable, http.StatusBadGateway},
	{context.DeadlineExceeded, CodeTimeout, http.StatusGatewayTimeout},
}

// ErrorForCode is the inverse of the server-side mapping.
func ErrorForCode(code string) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}

func classify(err error) (string, int) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code, e.status
		}
	}
	return CodeInternal, http.StatusInternalServerError
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, message, code string, statusCode int, validationErrors []ValidationError) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Code:   code,
		Errors: validationErrors,
	})
}

// respondServiceError maps a service error onto a status code and code.
func respondServiceError(w http.ResponseWriter, err error) {
	code, status := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	respondError(w, message, code, status, nil)
}

func health(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": service})
	}
}
