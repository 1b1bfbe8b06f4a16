package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vanvan1998/todoApp/internal/application/user"
	"github.com/vanvan1998/todoApp/internal/domain"
	"github.com/vanvan1998/todoApp/internal/pkg/validate"
	"github.com/vanvan1998/todoApp/internal/transport/http/middleware"
)

// UserHandler handles account endpoints. Every route except Register is
// self-service: the target id must match the caller's claims.
type UserHandler struct {
	svc    user.Service
	closer SessionCloser
}

func NewUserHandler(svc user.Service, closer SessionCloser) *UserHandler {
	return &UserHandler{svc: svc, closer: closer}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sess, bearer, refreshToken, err := h.svc.RegisterWithSession(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		AccessToken:  bearer,
		RefreshToken: refreshToken,
		Session:      toSafeSession(sess),
		User:         toSafeUser(sess.User),
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	targetID, ok := selfTarget(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), targetID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	targetID, ok := selfTarget(w, r)
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.Update(r.Context(), targetID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	targetID, ok := selfTarget(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), targetID); err != nil {
		httpError(w, err)
		return
	}
	if h.closer != nil {
		h.closer.Close(targetID)
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user deleted"})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}

// selfTarget resolves the {id} route param ("me" is accepted) and rejects
// requests against another account.
func selfTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	targetID := chi.URLParam(r, "id")
	if targetID == "me" {
		targetID = claims.UserID
	}
	if targetID != claims.UserID {
		writeError(w, http.StatusForbidden, "cannot act on another user")
		return "", false
	}
	return targetID, true
}
