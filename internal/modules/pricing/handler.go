package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/georgemunganga/pricing-rules/internal/modules/auth"
	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

// Handler exposes pricing HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the pricing endpoints on an /api/v1 router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Get("/rules", h.listRules)                     // GET  /api/v1/pricing/rules?page=N
		r.Post("/rules", h.createRule)                   // POST /api/v1/pricing/rules
		r.Get("/rules/{id}", h.getRule)                  // GET  /api/v1/pricing/rules/{id}
		r.Get("/rules/{id}/products", h.appliedProducts) // GET  /api/v1/pricing/rules/{id}/products
		r.Get("/affected", h.affectedProducts)           // GET  /api/v1/pricing/affected?start_cursor=
	})
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxRulesPage {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
			return
		}
		page = n
	}
	rules, err := h.service.ListRules(r.Context(), auth.ShopFromContext(r.Context()), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rules)
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rule, err := h.service.CreateRule(r.Context(), auth.ShopFromContext(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, rule)
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.GetRule(r.Context(), auth.ShopFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rule)
}

func (h *Handler) appliedProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.AppliedProducts(r.Context(), auth.ShopFromContext(r.Context()),
		chi.URLParam(r, "id"), q.Get("start_cursor"), q.Get("collection_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) affectedProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.AffectedProducts(r.Context(), auth.ShopFromContext(r.Context()), r.URL.Query().Get("start_cursor"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "fields": verr.Fields})
		return
	}

	var code int
	switch {
	case errors.Is(err, ErrCollectionNotInRule), errors.Is(err, ErrPageOutOfRange):
		code = http.StatusBadRequest
	case errors.Is(err, ErrRuleNotFound):
		code = http.StatusNotFound
	default:
		code = catalog.StatusFor(err)
	}
	if code >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("pricing request failed")
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
