package leads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/leadbridge/leadbridge/internal/auth"
	"github.com/leadbridge/leadbridge/internal/platform/httpx"
)

const defaultListLimit = 50

// Handler exposes the leads API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      auth.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, auth: authMW, validator: httpx.NewValidator()}
}

// MountRoutes registers lead routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/incoming", h.incoming)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticate)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Put("/{id}", h.update)
		r.With(h.auth.RequireAdmin).Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	p, _ := auth.PrincipalFromContext(r.Context())
	lead, err := h.service.Create(r.Context(), p.UserID, req)
	if err != nil {
		h.respondError(w, "create lead", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := ParseDateRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, err := ParseLimit(q.Get("limit"), defaultListLimit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	leads, err := h.service.List(r.Context(), ListFilter{From: from, To: to, Limit: limit})
	if err != nil {
		h.respondError(w, "list leads", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leads": leads, "totalLeads": len(leads)})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req UpdateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	lead, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, "update lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	p, _ := auth.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		h.respondError(w, "delete lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Lead removed"})
}

func (h *Handler) incoming(w http.ResponseWriter, r *http.Request) {
	var req IncomingCallRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	lead, created, err := h.service.HandleIncomingCall(r.Context(), req)
	switch {
	case errors.Is(err, ErrNoAssignee):
		httpx.Problem(w, http.StatusInternalServerError, "No Assignee", err.Error())
		return
	case err != nil:
		h.respondError(w, "incoming call", err)
		return
	}
	if !created {
		httpx.JSON(w, http.StatusOK, map[string]any{"message": "Lead already exists", "lead": lead})
		return
	}
	h.logger.Info("inbound lead created", slog.Int64("lead_id", lead.ID), slog.Int64("assignee", lead.CreatedBy))
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "New lead created", "lead": lead})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrDuplicate) &&
		!errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrUnauthorized) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func leadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid lead id")
		return 0, false
	}
	return id, true
}
