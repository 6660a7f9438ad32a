package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.respondServiceError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
