package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the catalog endpoints on an /api/v1 router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)                          // GET  /api/v1/products
	r.Post("/products/selected", h.selectedProducts)            // POST /api/v1/products/selected
	r.Get("/products/tags", h.productsByTags)                   // GET  /api/v1/products/tags?tags=a,b
	r.Get("/products/collections/{id}", h.productsByCollection) // GET  /api/v1/products/collections/{id}
	r.Get("/collections/{id}", h.getCollection)                 // GET  /api/v1/collections/{id}
}

type selectedProductsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("start_cursor"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) selectedProducts(w http.ResponseWriter, r *http.Request) {
	var req selectedProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	page, err := h.service.ProductsByIDs(r.Context(), req.IDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) productsByTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ProductsByTags(r.Context(), SplitList(q.Get("tags")), q.Get("start_cursor"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) productsByCollection(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ProductsByCollection(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("start_cursor"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

// StatusFor maps catalog errors onto HTTP status codes.
func StatusFor(err error) int {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrInvalidScope):
		return http.StatusBadRequest
	case errors.Is(err, ErrCollectionNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog request failed")
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
