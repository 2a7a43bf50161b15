package user

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/gfmoura/book-management/internal"
	"github.com/gfmoura/book-management/internal/auth"
	"github.com/gfmoura/book-management/internal/transport"
	"github.com/gfmoura/book-management/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Register handles POST /users (open registration).
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.CreateUser(dto, "")
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.UserFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(identity.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /users/{id} (admin or user management).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID := ""
	if identity, ok := auth.UserFromContext(r.Context()); ok && identity != nil {
		actorID = identity.UserID
	}

	if err := h.Service.DeleteUser(chi.URLParam(r, "id"), actorID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		h.WriteAppError(w, appErr)
		return
	}
	h.Logger.Error("user operation failed", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
