// Package leads implements the lead record lifecycle: capture, qualification
// through a fixed status state machine, tenant-scoped querying, and bulk tag
// mutation with role-gated write access.
package leads

import (
	apphttp "leadhub_backend/internal/http"
	"leadhub_backend/internal/leads/handler"
	"leadhub_backend/internal/leads/repository"
	"leadhub_backend/internal/leads/service"
	"leadhub_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(db repository.DB, val *validator.Validator) *Module {
	repo := repository.New(db)
	svc := service.New(repo, val)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
