package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/leadbridge/leadbridge/internal/auth"
	"github.com/leadbridge/leadbridge/internal/platform/httpx"
)

// SessionRevoker invalidates a session token.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// Handler manages user endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  SessionRevoker
	auth      auth.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions SessionRevoker, authMW auth.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessions: sessions, auth: authMW, validator: httpx.NewValidator()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticate)
		r.Get("/me", h.me)
		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin)
			r.Get("/", h.list)
			r.Post("/admins", h.createAdmin)
			r.Put("/{id}/approve", h.approve)
			r.Put("/{id}/promote", h.promote)
			r.Delete("/{id}", h.delete)
		})
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRegister(w, r)
	if !ok {
		return
	}
	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondError(w, "register user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful. Please wait for admin approval.",
		"user":    u,
	})
}

func (h *Handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRegister(w, r)
	if !ok {
		return
	}
	u, err := h.service.CreateAdmin(r.Context(), principalID(r), req)
	if err != nil {
		h.respondError(w, "create admin", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), principalID(r))
	if err != nil {
		h.respondError(w, "load current user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), auth.TokenFromRequest(r)); err != nil {
		h.respondError(w, "revoke session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.Approve(r.Context(), principalID(r), id)
	if err != nil {
		h.respondError(w, "approve user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "User approved", "user": u})
}

func (h *Handler) promote(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.Promote(r.Context(), principalID(r), id)
	if err != nil {
		h.respondError(w, "promote user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "User promoted to admin", "user": u})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principalID(r), id); err != nil {
		h.respondError(w, "delete user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

func (h *Handler) decodeRegister(w http.ResponseWriter, r *http.Request) (RegisterRequest, bool) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return req, false
	}
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrDuplicate) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	return id, true
}

func principalID(r *http.Request) int64 {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p.UserID
}
