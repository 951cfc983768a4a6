package attestation

import (
	"log/slog"

	"caredex/internal/attestation/device"
	"caredex/internal/attestation/handler"
	"caredex/internal/attestation/service"
)

// Service exposes submission, vote, and verification orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the attestation service.
type Handler = handler.Handler

// NewService constructs the attestation service with required dependencies.
func NewService(submissions service.SubmissionStore, acceptances service.AcceptanceStore,
	providers service.ProviderChecker, plans service.PlanChecker,
	dev *device.Service, opts ...service.Option) *Service {
	return service.New(submissions, acceptances, providers, plans, dev, opts...)
}

// NewHandler constructs an HTTP handler for attestation routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
