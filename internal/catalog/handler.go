package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/leadbridge/leadbridge/internal/auth"
	"github.com/leadbridge/leadbridge/internal/platform/httpx"
	"github.com/leadbridge/leadbridge/internal/shopify"
)

// Synchronizer runs a catalog sync.
type Synchronizer interface {
	Synchronize(ctx context.Context, req SyncRequest) (SyncResult, error)
}

// SyncEnqueuer schedules a background sync and returns the task id.
type SyncEnqueuer interface {
	EnqueueCatalogSync(ctx context.Context, storeAddress string, actorID int64) (string, error)
}

// Handler exposes the products API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	syncer    Synchronizer
	enqueuer  SyncEnqueuer
	auth      auth.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler. enqueuer may be nil when no worker queue is configured.
func NewHandler(logger *slog.Logger, service *Service, syncer Synchronizer, enqueuer SyncEnqueuer, authMW auth.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		syncer:    syncer,
		enqueuer:  enqueuer,
		auth:      authMW,
		validator: httpx.NewValidator(),
	}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.auth.Authenticate)
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireAdmin)
		r.Delete("/reset", h.reset)
		r.Delete("/{id}", h.delete)
		r.Post("/sync", h.sync)
		r.Post("/sync/enqueue", h.enqueueSync)
		r.Get("/sync/runs", h.runs)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	products, err := h.service.Search(r.Context(), SearchParams{Query: r.URL.Query().Get("search"), Limit: limit})
	if err != nil {
		h.logger.Error("search products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	product, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondWriteError(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	product, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondWriteError(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		h.respondWriteError(w, "delete product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Reset(r.Context(), actorID(r))
	if err != nil {
		h.logger.Error("reset catalog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("catalog reset", slog.Int64("deleted", n), slog.Int64("actor_id", actorID(r)))
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "All products cleared successfully", "deleted": n})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var body syncRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	res, err := h.syncer.Synchronize(r.Context(), SyncRequest{
		StoreAddress: body.StoreURL,
		AccessToken:  body.AccessToken,
		ActorID:      actorID(r),
	})
	if err != nil {
		h.respondSyncFailure(w, res, err)
		return
	}
	httpx.JSON(w, http.StatusOK, syncResponse{Message: "Sync successful", SyncResult: res})
}

func (h *Handler) enqueueSync(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "background sync queue is not configured")
		return
	}
	var body syncRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	taskID, err := h.enqueuer.EnqueueCatalogSync(r.Context(), body.StoreURL, actorID(r))
	if err != nil {
		h.respondSyncError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"message": "Sync queued", "taskId": taskID})
}

func (h *Handler) runs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	runs, err := h.service.Runs(r.Context(), limit)
	if err != nil {
		h.logger.Error("list sync runs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if runs == nil {
		runs = []SyncRun{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) respondSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, shopify.ErrInvalidStoreAddress):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, ErrSyncInProgress):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("catalog sync failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Sync Failed", "")
	}
}

func (h *Handler) respondSyncFailure(w http.ResponseWriter, res SyncResult, err error) {
	if errors.Is(err, ErrMissingCredentials) || errors.Is(err, shopify.ErrInvalidStoreAddress) || errors.Is(err, ErrSyncInProgress) {
		h.respondSyncError(w, err)
		return
	}
	h.logger.Error("catalog sync failed",
		slog.Any("error", err),
		slog.Int("saved", res.Saved),
		slog.Int("fetched", res.Fetched),
		slog.Int("errors", res.Errors),
	)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(syncFailure{
		ProblemDetail: httpx.ProblemDetail{
			Title:  "Sync Failed",
			Status: http.StatusInternalServerError,
			Detail: "sync stopped before completion",
		},
		Result: res,
	})
}

func (h *Handler) respondWriteError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrDuplicate) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p.UserID
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, httpx.ErrValidation
	}
	return n, nil
}
