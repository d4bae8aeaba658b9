package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/infrastructure/logger"
	"github.com/billsync/backend/internal/interfaces/http/handler"
	"github.com/billsync/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the gin engine and its middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Metrics        gin.HandlerFunc // optional, see middleware.HTTPMetrics
	MaxBodySize    int64
	TrustedProxies []string
}

// NewEngine creates a gin engine with the middleware stack applied in order:
// request ID, tracing, panic recovery, request logging, metrics, body limit.
// Unknown methods on known paths get 405 instead of 404.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(handler.MethodNotAllowed)
	engine.NoRoute(handler.NotFound)

	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics)
	}
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	return engine
}
