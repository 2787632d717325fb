package tag

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/pricing-rules/internal/modules/auth"
	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/tags", h.listTags)
	router.Post("/tags", h.createTag)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListTags(r.Context(), auth.ShopFromContext(r.Context()), r.URL.Query().Get("start_cursor"))
	if err != nil {
		respond(w, catalog.StatusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, list)
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	t, err := h.service.CreateTag(r.Context(), auth.ShopFromContext(r.Context()), req.Name)
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrNameRequired):
			code = http.StatusBadRequest
		case errors.Is(err, ErrTagExists):
			code = http.StatusConflict
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, t)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
