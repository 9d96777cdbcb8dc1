package handlers

import (
	"net/http"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/services"
	"github.com/mguerin/materiguard/session"
)

// UserHandler manages accounts. Routes using it sit behind the manage_users
// permission; mutations invalidate the authorization cache so role changes
// take effect without waiting for the TTL.
type UserHandler struct {
	users    *services.UserService
	resolver *gate.CachedResolver[uint]
}

func NewUserHandler(users *services.UserService, resolver *gate.CachedResolver[uint]) *UserHandler {
	return &UserHandler{users: users, resolver: resolver}
}

func (h *UserHandler) List(w http.ResponseWriter, _ *http.Request) {
	users, err := h.users.GetAll()
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	user, err := h.users.GetByID(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.UserInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	user, err := h.users.Create(input)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var upd services.UserUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	user, err := h.users.Update(id, upd)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.resolver.Invalidate(id)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	// An administrator deleting their own account would lock the session out
	// mid-request; reject it outright.
	if self, ok := session.UserIDFromContext(r.Context()); ok && self == id {
		httpx.JSONError(w, http.StatusConflict, "cannot_delete_self", nil)
		return
	}
	if err := h.users.Delete(id); err != nil {
		serviceError(w, err)
		return
	}
	h.resolver.Invalidate(id)
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}
