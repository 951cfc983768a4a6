// Package handler exposes the provider directory over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"caredex/internal/confidence"
	"caredex/internal/directory/models"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/platform/httputil"
	"caredex/pkg/requestcontext"
)

// Service defines the directory operations the handler depends on.
type Service interface {
	CreateProvider(ctx context.Context, npi, name, specialty string) (*models.Provider, error)
	GetProvider(ctx context.Context, id domain.ProviderID) (*models.Provider, error)
	SearchProviders(ctx context.Context, filter models.SearchFilter) ([]*models.Provider, error)
	DeactivateProvider(ctx context.Context, id domain.ProviderID) (*models.Provider, error)
	CreatePlan(ctx context.Context, carrier, name string, effective, termination *time.Time) (*models.Plan, error)
	GetPlan(ctx context.Context, id domain.PlanID) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	UpsertAcceptance(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
		status confidence.AcceptanceStatus, source confidence.Source) (*models.Acceptance, error)
	EvaluateAcceptance(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID) (*confidence.Result, error)
	ProviderSummary(ctx context.Context, providerID domain.ProviderID) (*confidence.Summary, error)
}

// Handler handles directory endpoints.
type Handler struct {
	directory Service
	logger    *slog.Logger
}

// New creates a directory Handler.
func New(directory Service, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the directory routes. Mutating routes go behind the given
// admin middleware; read routes stay public.
func (h *Handler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/providers", func(r chi.Router) {
		r.Get("/", h.handleSearchProviders)
		r.Get("/{providerID}", h.handleGetProvider)
		r.Get("/{providerID}/confidence", h.handleProviderSummary)
		r.Get("/{providerID}/plans/{planID}/confidence", h.handleEvaluate)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.handleCreateProvider)
			r.Post("/{providerID}/deactivate", h.handleDeactivateProvider)
			r.Put("/{providerID}/plans/{planID}", h.handleUpsertAcceptance)
		})
	})

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.handleListPlans)
		r.Get("/{planID}", h.handleGetPlan)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.handleCreatePlan)
		})
	})
}

func (h *Handler) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateProviderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	provider, err := h.directory.CreateProvider(ctx, req.NPI, req.Name, req.Specialty)
	if err != nil {
		h.logError(ctx, "failed to create provider", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, provider)
}

func (h *Handler) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	provider, err := h.directory.GetProvider(r.Context(), providerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

func (h *Handler) handleSearchProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := searchFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	providers, err := h.directory.SearchProviders(ctx, filter)
	if err != nil {
		h.logError(ctx, "provider search failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"providers": providers,
		"count":     len(providers),
	})
}

func searchFilterFromQuery(r *http.Request) (models.SearchFilter, error) {
	q := r.URL.Query()
	filter := models.SearchFilter{Specialty: q.Get("specialty")}

	if raw := q.Get("plan_id"); raw != "" {
		planID, err := domain.ParsePlanID(raw)
		if err != nil {
			return filter, err
		}
		filter.PlanID = planID
	}
	if raw := q.Get("min_score"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil || minScore < 0 || minScore > 100 {
			return filter, derrors.New(derrors.CodeBadRequest, "min_score must be an integer between 0 and 100")
		}
		filter.MinScore = &minScore
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, derrors.New(derrors.CodeBadRequest, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func (h *Handler) handleDeactivateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	provider, err := h.directory.DeactivateProvider(ctx, providerID)
	if err != nil {
		h.logError(ctx, "failed to deactivate provider", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePlanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	plan, err := h.directory.CreatePlan(ctx, req.Carrier, req.Name, req.EffectiveDate, req.TerminationDate)
	if err != nil {
		h.logError(ctx, "failed to create plan", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, plan)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	plan, err := h.directory.GetPlan(r.Context(), planID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.directory.ListPlans(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"plans": plans,
		"count": len(plans),
	})
}

func (h *Handler) handleUpsertAcceptance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpsertAcceptanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	acceptance, err := h.directory.UpsertAcceptance(ctx, providerID, planID,
		confidence.AcceptanceStatus(req.Status), confidence.Source(req.Source))
	if err != nil {
		h.logError(ctx, "failed to upsert acceptance", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acceptance)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.directory.EvaluateAcceptance(ctx, providerID, planID)
	if err != nil {
		h.logError(ctx, "confidence evaluation failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProviderSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.directory.ProviderSummary(ctx, providerID)
	if err != nil {
		h.logError(ctx, "provider summary failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) logError(ctx context.Context, msg, requestID string, err error) {
	if derrors.HasCode(err, derrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
}
