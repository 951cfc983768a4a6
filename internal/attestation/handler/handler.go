// Package handler exposes attestation endpoints: public crowdsourced
// submissions and votes, and staff verification recording.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caredex/internal/attestation/models"
	"caredex/internal/confidence"
	dirmodels "caredex/internal/directory/models"
	"caredex/pkg/domain"
	"caredex/pkg/platform/httputil"
	"caredex/pkg/requestcontext"
)

// Service defines the attestation operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
		status confidence.AcceptanceStatus, note string) (*models.Submission, error)
	Vote(ctx context.Context, submissionID domain.SubmissionID, upvote bool) (*dirmodels.Acceptance, error)
	RecordVerification(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
		status confidence.AcceptanceStatus, source confidence.Source) (*dirmodels.Acceptance, error)
}

// Handler handles attestation endpoints.
type Handler struct {
	attestations Service
	logger       *slog.Logger
}

// New creates an attestation Handler.
func New(attestations Service, logger *slog.Logger) *Handler {
	return &Handler{attestations: attestations, logger: logger}
}

// Register mounts the attestation routes. Public crowd routes go behind the
// given rate limiter; verification recording requires staff auth.
func (h *Handler) Register(r chi.Router, limit, staff func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/attestations", h.handleSubmit)
		r.Post("/attestations/{submissionID}/votes", h.handleVote)
	})

	r.Group(func(r chi.Router) {
		r.Use(staff)
		r.Post("/verifications", h.handleRecordVerification)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	submission, err := h.attestations.Submit(ctx, req.ProviderID, req.PlanID,
		confidence.AcceptanceStatus(req.Status), req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "submission rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submission)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	submissionID, err := domain.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	acceptance, err := h.attestations.Vote(ctx, submissionID, req.Upvote)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acceptance)
}

func (h *Handler) handleRecordVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	acceptance, err := h.attestations.RecordVerification(ctx, req.ProviderID, req.PlanID,
		confidence.AcceptanceStatus(req.Status), confidence.Source(req.Source))
	if err != nil {
		h.logger.WarnContext(ctx, "verification rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acceptance)
}
