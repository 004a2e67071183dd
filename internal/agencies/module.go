// Package agencies provides the agency directory bounded context module.
package agencies

import (
	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/agencies/handler"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	apphttp "crisisnet_backend/internal/http"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/validator"
)

// Module is the agencies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	dir     *directory.Directory
}

// NewModule creates and initializes the agencies module. The directory is
// seeded from the configured YAML catalog, falling back to the built-in set
// when no catalog is configured or it cannot be read.
func NewModule(cfg config.DirectoryConfig, scorer *geo.Scorer, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	dir := directory.New(log)

	seeded := false
	if path := cfg.GetAgencyCatalogPath(); path != "" {
		count, err := dir.LoadCatalog(path)
		if err != nil {
			log.Warn("agency catalog load failed, using defaults", "path", path, "error", err)
		} else {
			log.Info("agency catalog loaded", "path", path, "agencies", count)
			seeded = true
		}
	}
	if !seeded {
		dir.SeedDefaults()
	}

	h := handler.New(dir, scorer, bus, val, log)
	return &Module{handler: h, dir: dir}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agencies"
}

// Directory returns the in-memory directory for other modules.
func (m *Module) Directory() *directory.Directory {
	return m.dir
}

// RegisterRoutes mounts agency routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/agencies")
	group.GET("", m.handler.List)
	group.GET("/nearby", m.handler.Nearby)
	group.GET("/:id", m.handler.Get)

	protected := ctx.Protected.Group("/agencies")
	protected.POST("", m.handler.Register)
	protected.POST("/:id/status", m.handler.UpdateStatus)
	protected.POST("/:id/heartbeat", m.handler.Heartbeat)
}
