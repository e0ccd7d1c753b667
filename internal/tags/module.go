// Package tags provides the tag management bounded context module.
package tags

import (
	apphttp "leadhub_backend/internal/http"
	"leadhub_backend/internal/tags/handler"
	"leadhub_backend/internal/tags/repository"
	"leadhub_backend/internal/tags/service"
	"leadhub_backend/platform/validator"
)

// Module is the tags bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the tags module with all its dependencies.
func NewModule(db repository.DB, val *validator.Validator) *Module {
	repo := repository.New(db)
	svc := service.New(repo, val)

	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tags"
}

// RegisterRoutes mounts tags routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	tagsGroup := ctx.Protected.Group("/tags")
	m.handler.RegisterRoutes(tagsGroup)
}

var _ apphttp.Module = (*Module)(nil)
