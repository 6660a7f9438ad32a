package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-storefront/internal/checkout"
)

type checkoutRequest struct {
	ContactEmail string `json:"contact_email"`
	Lines        []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	} `json:"lines"`
}

type checkoutResponse struct {
	OrderID int64 `json:"order_id"`
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	placeReq := checkout.PlaceOrderRequest{
		ContactEmail:   req.ContactEmail,
		Lines:          make([]checkout.Line, len(req.Lines)),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	for i, line := range req.Lines {
		placeReq.Lines[i] = checkout.Line{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	if userID, ok := UserID(r.Context()); ok {
		placeReq.UserID = &userID
	}

	orderID, err := s.orders.PlaceOrder(r.Context(), placeReq)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/orders/%d", orderID))
	respondJSON(w, http.StatusSeeOther, checkoutResponse{OrderID: orderID})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	query := r.URL.Query()

	if !query.Has("cursor") && !query.Has("limit") {
		orders, err := s.orders.Orders(r.Context(), userID)
		if err != nil {
			s.respondServiceError(w, r, err, http.StatusNotFound)
			return
		}
		respondJSON(w, http.StatusOK, orders)
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	page, err := s.orders.OrdersPage(r.Context(), userID, query.Get("cursor"), limit)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idParam(w, r)
	if !ok {
		return
	}
	userID, _ := UserID(r.Context())

	order, err := s.orders.Order(r.Context(), userID, orderID)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) addLineItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idParam(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, _ := UserID(r.Context())

	item, err := s.orders.AddLineItem(r.Context(), userID, orderID, req.ProductID, req.Quantity)
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
