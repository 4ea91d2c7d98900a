package api

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/domain/product"
	"github.com/go-chi/chi/v5"
)

type productResponse struct {
	product.Product
	OnSale bool `json:"on_sale"`
}

func newProductResponse(p product.Product) productResponse {
	return productResponse{Product: p, OnSale: p.OnSale()}
}

func listParams(r *http.Request) product.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return product.ListParams{
		Page:       page,
		PerPage:    perPage,
		Category:   q.Get("category"),
		Collection: q.Get("collection"),
		Search:     q.Get("search"),
		Sort:       q.Get("sort"),
	}
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ListProducts(r.Context(), listParams(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	out := paging.Page[productResponse]{
		Data: make([]productResponse, 0, len(page.Data)),
		Meta: page.Meta,
	}
	for _, p := range page.Data {
		out.Data = append(out.Data, newProductResponse(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newProductResponse(*p))
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if categories == nil {
		categories = []product.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.catalog.ListCollections(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if collections == nil {
		collections = []product.Collection{}
	}
	respondJSON(w, http.StatusOK, collections)
}
