package directory

import (
	"log/slog"

	"caredex/internal/directory/handler"
	"caredex/internal/directory/service"
)

// Service exposes provider, plan, and acceptance orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the directory service.
type Handler = handler.Handler

// NewService constructs the directory service with required stores.
func NewService(providers service.ProviderStore, plans service.PlanStore,
	acceptances service.AcceptanceStore, opts ...service.Option) *Service {
	return service.New(providers, plans, acceptances, opts...)
}

// NewHandler constructs an HTTP handler for directory routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
