package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	syncapp "github.com/vanvan1998/todoApp/internal/application/sync"
	"github.com/vanvan1998/todoApp/internal/domain"
	"github.com/vanvan1998/todoApp/internal/pkg/validate"
	"github.com/vanvan1998/todoApp/internal/transport/http/middleware"
)

// TodoHandler exposes the caller's live todo session: the displayed list,
// write-through mutations, and the view stream. Every route requires auth;
// the session is keyed by the JWT's user id.
type TodoHandler struct {
	mgr *syncapp.Manager
}

func NewTodoHandler(mgr *syncapp.Manager) *TodoHandler {
	return &TodoHandler{mgr: mgr}
}

func (h *TodoHandler) open(w http.ResponseWriter, r *http.Request) (*syncapp.Session, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	sess, err := h.mgr.Open(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return nil, false
	}
	return sess, true
}

// List returns the displayed list. Optional query params update the view
// state first: q (search), sort (none|newest|oldest), width (viewport).
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.open(w, r)
	if !ok {
		return
	}
	params := r.URL.Query()
	if params.Has("width") {
		width, err := strconv.Atoi(params.Get("width"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "width must be an integer")
			return
		}
		sess.SetViewportWidth(width)
	}
	if params.Has("sort") {
		mode, err := domain.ParseSortMode(params.Get("sort"))
		if err != nil {
			httpError(w, err)
			return
		}
		sess.SetSort(mode)
	}
	if params.Has("q") {
		sess.SetSearch(params.Get("q"))
	}
	writeJSON(w, http.StatusOK, sess.Displayed())
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.open(w, r)
	if !ok {
		return
	}
	var req domain.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := sess.Add(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	// The item is not echoed back: it arrives through the next snapshot.
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "todo created"})
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.open(w, r)
	if !ok {
		return
	}
	var req domain.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.Update(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "todo updated"})
}

func (h *TodoHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := sess.ToggleComplete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "todo toggled"})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := sess.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "todo deleted"})
}
