package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/database"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type stockErrorBody struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// respondServiceError maps an error from the order service or the store to a
// response. productMissing is the status for ErrProductNotFound: 404 when the
// product is the requested resource, 422 when it is named inside a request.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error, productMissing int) {
	var stockErr *database.InsufficientStockError

	switch {
	case errors.Is(err, checkout.ErrUnauthorized):
		s.redirectToLogin(w, r)
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, stockErrorBody{
			Error:     "insufficient stock",
			ProductID: stockErr.ProductID,
			Available: stockErr.Available,
			Requested: stockErr.Requested,
		})
	case errors.Is(err, checkout.ErrInvalidRequest),
		errors.Is(err, database.ErrNegativePrice),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidSlug),
		errors.Is(err, database.ErrEmptyOrder),
		errors.Is(err, database.ErrCategoryNotFound):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, database.ErrProductNotFound):
		respondError(w, productMissing, "product not found")
	case errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, database.ErrOrderShipped):
		respondError(w, http.StatusConflict, "order has already shipped")
	case errors.Is(err, database.ErrAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrOptimisticLockFailed):
		respondError(w, http.StatusConflict, "stock was changed concurrently, reload and retry")
	case errors.Is(err, checkout.ErrStorageFailure):
		respondError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
	default:
		s.logger.Error("unhandled error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
