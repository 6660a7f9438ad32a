package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-storefront/internal/checkout"
)

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := s.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params, err := in.params()
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	product, err := s.catalog.CreateProduct(r.Context(), params)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (s *Server) restock(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	available, err := s.orders.Restock(r.Context(), productID, req.Quantity)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"product_id":         productID,
		"available_quantity": available,
	})
}

func (s *Server) setStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r)
	if !ok {
		return
	}

	var req struct {
		AvailableQuantity int `json:"available_quantity"`
		Version           int `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.catalog.SetStockOptimistic(r.Context(), productID, req.AvailableQuantity, req.Version); err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) shipOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idParam(w, r)
	if !ok {
		return
	}

	order, err := s.orders.MarkShipped(r.Context(), orderID)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) shipNext(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.ShipNext(r.Context())
	if errors.Is(err, checkout.ErrOrderNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
