// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/core/tx"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/aggregation"
	"estoque/internal/domain/audit"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/consolidation"
	"estoque/internal/domain/period"
	"estoque/internal/domain/records"
	"estoque/internal/infrastructure/http/v1/handlers"
	"estoque/internal/infrastructure/http/v1/middleware"
	"estoque/pkg/logger"
)

// RecordStore is the line record side of the storage layer.
type RecordStore interface {
	records.Source
	records.OverrideStore
}

// RouterConfig holds the stores and settings the API is built from.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Readiness is probed by /health/ready; nil means always ready.
	Readiness handlers.ReadinessChecker

	// Storage names the backing store in /health/info.
	Storage string

	Periods   period.Repository
	Records   RecordStore
	Products  product.Repository
	Transfers adjustment.Repository

	// AuditSink receives transfer snapshots; nil disables the audit trail.
	AuditSink audit.Sink

	TxManager tx.ReadOnlyManager

	PageSize       int
	OverdrawPolicy adjustment.OverdrawPolicy

	// Debug switches gin to debug mode.
	Debug bool
}

// Services are the domain services behind the API.
type Services struct {
	Periods       *period.Service
	Resolver      *period.Resolver
	Entries       *aggregation.Entries
	Exits         *aggregation.Exits
	Consolidation *consolidation.Engine
	Adjustments   *adjustment.Service
	Overrides     *records.OverrideService
	Products      *product.Service
	Audit         *audit.Recorder
}

// NewServices wires the domain services from the configured stores.
func NewServices(cfg RouterConfig) *Services {
	resolver := period.NewResolver(cfg.Periods)
	entries := aggregation.NewEntries(cfg.Records, cfg.Products, cfg.PageSize)
	exits := aggregation.NewExits(cfg.Records, cfg.PageSize)

	engine := consolidation.NewEngine(consolidation.Deps{
		Resolver:  resolver,
		Stock:     aggregation.NewInitialStock(cfg.Records, cfg.PageSize),
		Entries:   entries,
		Exits:     exits,
		Transfers: cfg.Transfers,
		Products:  cfg.Products,
		TxManager: cfg.TxManager,
	})

	adjustments := adjustment.NewService(cfg.Transfers, engine, cfg.TxManager, cfg.OverdrawPolicy)

	s := &Services{
		Periods:       period.NewService(cfg.Periods, cfg.TxManager),
		Resolver:      resolver,
		Entries:       entries,
		Exits:         exits,
		Consolidation: engine,
		Adjustments:   adjustments,
		Overrides:     records.NewOverrideService(cfg.Records),
		Products:      product.NewService(cfg.Products),
	}

	if cfg.AuditSink != nil {
		s.Audit = audit.NewRecorder(cfg.AuditSink)
		s.Audit.AttachTransfers(adjustments.Hooks())
	}
	return s
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Operator())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Readiness, cfg.Storage)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	services := NewServices(cfg)
	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	registerPeriodRoutes(v1, base, services)
	registerRecordRoutes(v1, base, services)
	registerAdjustmentRoutes(v1, base, services)
	registerCatalogRoutes(v1, base, services)

	return router
}

// registerPeriodRoutes registers periods, batches and consolidation.
func registerPeriodRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	periodHandler := handlers.NewPeriodHandler(base, s.Periods, s.Resolver)
	consolidationHandler := handlers.NewConsolidationHandler(base, s.Consolidation)
	batchHandler := handlers.NewBatchHandler(base, s.Periods)

	periods := rg.Group("/periods")
	{
		periods.GET("", periodHandler.List)
		periods.POST("", periodHandler.Create)
		periods.GET("/active", periodHandler.Active)
		periods.POST("/:id/activate", periodHandler.Activate)
		periods.GET("/:id/batches", periodHandler.Batches)
		periods.GET("/:id/resolution", periodHandler.Resolution)
		periods.GET("/:id/consolidation", consolidationHandler.Get)
	}

	batches := rg.Group("/batches")
	{
		batches.POST("", batchHandler.Register)
		batches.PUT("/:id/base", batchHandler.SetBase)
		batches.PUT("/:id/period", batchHandler.Link)
	}
}

// registerRecordRoutes registers aggregation views and entry overrides.
func registerRecordRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	aggregationHandler := handlers.NewAggregationHandler(base, s.Entries, s.Exits)
	overrideHandler := handlers.NewOverrideHandler(base, s.Overrides)

	rg.GET("/batches/:id/entries", aggregationHandler.Entries)
	rg.GET("/exits", aggregationHandler.Exits)

	lines := rg.Group("/batches/:id/entry-lines")
	{
		lines.PUT("/:lineId/override", overrideHandler.Set)
		lines.DELETE("/:lineId/override", overrideHandler.Clear)
	}
}

// registerAdjustmentRoutes registers transfer endpoints.
func registerAdjustmentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	handler := handlers.NewAdjustmentHandler(base, s.Adjustments, s.Audit)

	adjustments := rg.Group("/adjustments")
	{
		adjustments.GET("", handler.List)
		adjustments.POST("", handler.Create)
		adjustments.DELETE("/:id", handler.Delete)
		adjustments.GET("/:id/history", handler.History)
	}
}

// registerCatalogRoutes registers conversions and the secondary product catalog.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	handler := handlers.NewConversionHandler(base, s.Products)

	conversions := rg.Group("/conversions")
	{
		conversions.GET("", handler.List)
		conversions.POST("", handler.Create)
		conversions.DELETE("/:id", handler.Delete)
	}

	rg.PUT("/products/:code", handler.UpsertProduct)
}
