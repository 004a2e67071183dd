// Package crisis provides the crisis dispatch bounded context module.
package crisis

import (
	"time"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/handler"
	"crisisnet_backend/internal/crisis/matching"
	"crisisnet_backend/internal/crisis/registry"
	"crisisnet_backend/internal/crisis/service"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	apphttp "crisisnet_backend/internal/http"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/validator"
)

// Module is the crisis bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	reg     *registry.Registry
}

// NewModule creates and initializes the crisis module. analyzer, scheduler,
// and photos may be nil when their collaborators are not configured.
func NewModule(
	dir *directory.Directory,
	analyzer service.SeverityAnalyzer,
	scheduler service.EscalationScheduler,
	photos handler.PhotoStore,
	bus events.Bus,
	cfg config.DispatchConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	scorer := geo.NewScorer()
	reg := registry.New()
	engine := matching.New(dir, scorer)
	synthetic := matching.NewSyntheticSupplyPolicy(dir, log, time.Now().UnixNano())

	svc := service.New(reg, dir, engine, synthetic, scorer, analyzer, scheduler, bus, cfg, log)
	h := handler.New(svc, photos, val, log)

	return &Module{handler: h, service: svc, reg: reg}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "crisis"
}

// Service returns the dispatch service for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts crisis routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/crisis")
	group.POST("/alert", ctx.AlertLimiter.RateLimit(), m.handler.Alert)
	group.GET("", m.handler.List)
	group.GET("/active", m.handler.ListActive)
	group.GET("/analytics/summary", m.handler.AnalyticsSummary)
	group.GET("/:id", m.handler.Get)
	group.GET("/:id/qr", m.handler.ShareQR)
	group.POST("/:id/respond", m.handler.Respond)
	group.POST("/:id/location", m.handler.UpdateLocation)

	protected := ctx.Protected.Group("/crisis")
	protected.POST("/:id/escalate", m.handler.Escalate)
	protected.POST("/:id/close", m.handler.Close)

	simulate := ctx.Admin.Group("/simulate")
	simulate.POST("/crisis", m.handler.SimulateCrisis)
	simulate.POST("/crisis/:id/responses", m.handler.SimulateResponses)
}
