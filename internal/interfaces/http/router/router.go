// Package router assembles the gin engine: middleware chain, health check
// and the versioned API routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/handler"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar registers routes on the API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router registers route groups under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version prefix, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAPIMiddleware adds middleware that runs only on API routes
func WithAPIMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers every queued registrar
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup is a set of routes under one prefix
type DomainGroup struct {
	prefix string
	routes []route
}

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// NewDomainGroup creates a group under prefix
func NewDomainGroup(prefix string) *DomainGroup {
	return &DomainGroup{prefix: prefix}
}

// GET adds a GET route
func (g *DomainGroup) GET(path string, h gin.HandlerFunc) *DomainGroup {
	return g.add("GET", path, h)
}

// POST adds a POST route
func (g *DomainGroup) POST(path string, h gin.HandlerFunc) *DomainGroup {
	return g.add("POST", path, h)
}

// DELETE adds a DELETE route
func (g *DomainGroup) DELETE(path string, h gin.HandlerFunc) *DomainGroup {
	return g.add("DELETE", path, h)
}

func (g *DomainGroup) add(method, path string, h gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: path, handler: h})
	return g
}

// RegisterRoutes implements RouteRegistrar
func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handler)
	}
}

// Handlers are the endpoint handlers served by the engine
type Handlers struct {
	Sales          *handler.SaleHandler
	Ledger         *handler.LedgerHandler
	Accounts       *handler.CustomerAccountHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	CashSessions   *handler.CashSessionHandler
	StockUnits     *handler.StockUnitHandler
	Health         *handler.HealthHandler
}

// Config configures the engine
type Config struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool

	// ProfilingEnabled labels request goroutines for the continuous profiler
	ProfilingEnabled bool

	// Tokens validates bearer tokens. Nil disables the JWT middleware and
	// tenants come from the X-Tenant-ID header only.
	Tokens         middleware.TokenValidator
	TokensOptional bool
}

// New builds the engine with the full middleware chain and every route
func New(cfg Config, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.Profiling(cfg.ProfilingEnabled),
		middleware.CORS(cfg.HTTP),
		middleware.BodyLimit(middleware.DefaultBodyLimit),
	)
	if h.Health != nil {
		engine.GET("/health", h.Health.Check)
	}

	apiMiddleware := []gin.HandlerFunc{}
	if cfg.Tokens != nil {
		apiMiddleware = append(apiMiddleware, middleware.JWT(middleware.JWTConfig{
			Validator: cfg.Tokens,
			Required:  !cfg.TokensOptional,
		}))
	}
	apiMiddleware = append(apiMiddleware, middleware.Tenant(), middleware.SpanAttributes())

	r := NewRouter(engine, WithAPIVersion("v1"), WithAPIMiddleware(apiMiddleware...))
	if s := h.Sales; s != nil {
		r.Register(NewDomainGroup("/sales").
			POST("", s.Finalize).
			GET("/:id", s.Get).
			POST("/:id/cancel", s.Cancel))
	}
	if l := h.Ledger; l != nil {
		r.Register(NewDomainGroup("/ledger/entries").
			POST("", l.Create).
			GET("", l.List).
			GET("/:id", l.Get).
			POST("/:id/settle", l.Settle).
			POST("/:id/cancel", l.Cancel).
			POST("/:id/write-off", l.WriteOff))
	}
	if a := h.Accounts; a != nil {
		r.Register(NewDomainGroup("/customers").
			GET("/:id/account", a.GetAccount).
			GET("/:id/transactions", a.ListTransactions).
			POST("/:id/transactions", a.RecordTransaction).
			POST("/:id/transactions/:txId/reverse", a.ReverseTransaction).
			GET("/:id/credit-check", a.CheckCredit))
	}
	if p := h.PurchaseOrders; p != nil {
		r.Register(NewDomainGroup("/purchase-orders").
			POST("", p.Submit).
			GET("/:id", p.Get).
			POST("/:id/status", p.Advance).
			POST("/:id/receive", p.Receive))
	}
	if cs := h.CashSessions; cs != nil {
		r.Register(NewDomainGroup("/cash-sessions").
			POST("", cs.Open).
			GET("/current", cs.Current).
			POST("/:id/close", cs.Close))
	}
	if su := h.StockUnits; su != nil {
		r.Register(NewDomainGroup("/stock-units").
			POST("", su.Define).
			GET("/:id", su.Get).
			DELETE("/:id", su.Delete).
			POST("/:id/debit", su.Debit).
			POST("/:id/credit", su.Credit).
			GET("/:id/movements", su.ListMovements))
	}
	r.Setup()
	return engine
}
