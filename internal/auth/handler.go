package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

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

// Login deliberately returns the same generic unauthorized response for
// unknown user, wrong password, locked and inactive accounts. The reason is
// logged server-side only.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Service.Authenticate(dto)
	if err != nil {
		switch err {
		case ErrInvalidCredentials, ErrAccountLocked, ErrUserInactive:
			h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			if _, ok := err.(ValidationError); ok {
				h.WriteError(w, http.StatusBadRequest, err.Error())
			} else {
				h.Logger.Error("authentication failed", "error", err)
				h.WriteError(w, http.StatusInternalServerError, "internal server error")
			}
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if _, err := h.Service.VerifyToken(token); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	// stateless tokens: nothing to revoke server-side
	w.WriteHeader(http.StatusNoContent)
}

// UnlockAccount handles POST /admin/users/{id}/unlock.
func (h *Handler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	actorID := ""
	if identity, ok := UserFromContext(r.Context()); ok && identity != nil {
		actorID = identity.UserID
	}

	if err := h.Service.UnlockAccount(userID, actorID); err != nil {
		if err == ErrUserNotFound {
			h.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Logger.Error("unlock account failed", "user_id", userID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
}

// SecurityStatus handles GET /admin/users/{id}/security-status. Lock state
// is visible here and only here.
func (h *Handler) SecurityStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	status, err := h.Service.GetSecurityStatus(userID)
	if err != nil {
		if err == ErrUserNotFound {
			h.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Logger.Error("security status failed", "user_id", userID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}

// AuthMiddleware validates the bearer token and attaches the resolved
// identity to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		identity, err := h.Service.VerifyToken(token)
		if err != nil {
			switch err {
			case ErrTokenExpired:
				h.WriteError(w, http.StatusUnauthorized, "token expired")
			case ErrUserNotFound, ErrUserInactive:
				h.WriteError(w, http.StatusUnauthorized, "user not found")
			default:
				h.WriteError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		ctx := ContextWithUser(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
