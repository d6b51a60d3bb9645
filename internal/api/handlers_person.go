package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	respond "github.com/bayviewassociation/memberdb/internal/api/respond"
	"github.com/bayviewassociation/memberdb/internal/model"
)

// PersonHandler serves cross-schema person reads.
type PersonHandler struct {
	manager Manager
}

func NewPersonHandler(manager Manager) *PersonHandler {
	return &PersonHandler{manager: manager}
}

// GetUnifiedView handles GET /api/persons/{id}.
func (h *PersonHandler) GetUnifiedView(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respond.WriteBadRequest(w, "person id must be an integer")
		return
	}

	view, err := h.manager.PersonUnifiedView(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("personId", id).Msg("unified view failed")
		respond.WriteInternalError(w, "Failed to load person")
		return
	}
	if view.Modern == nil {
		respond.WriteNotFound(w, "person not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, view)
}

// Search handles GET /api/search?q=&limit=.
func (h *PersonHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respond.WriteBadRequest(w, "q query parameter is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.manager.Search(r.Context(), term, model.ListOptions{Limit: limit})
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("search failed")
		respond.WriteInternalError(w, "Search failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, results)
}
