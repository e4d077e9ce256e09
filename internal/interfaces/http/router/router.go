package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes on a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts the ledger's route groups under /api/<version>. Middleware
// given to the router, such as JWT auth, guards every mounted route but
// nothing registered directly on the engine.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the base path
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithMiddleware adds middleware run before every API route
func WithMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.middleware = append(r.middleware, middleware...) }
}

// NewRouter creates a router for engine, defaulting to v1
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrars for Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// BasePath is the prefix every API route is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registered group and returns the API group
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group(r.BasePath(), r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}

// RouteInfo describes one route of a DomainGroup
type RouteInfo struct {
	Method string
	Path   string
}

type route struct {
	owner    *DomainGroup
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one resource, such as budgets, before
// they are mounted. Subgroups share their root's route table, so routes keep
// the order they were declared in. Group middleware applies to every route
// of the group and its subgroups, whenever Use is called.
type DomainGroup struct {
	name       string
	prefix     string
	parent     *DomainGroup
	middleware []gin.HandlerFunc
	table      *[]route
}

// NewDomainGroup creates a root group mounted at prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix, table: &[]route{}}
}

// Group creates a subgroup at prefix below this group
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix, parent: dg, table: dg.table}
}

// Use adds group middleware
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, relativePath, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, relativePath, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, relativePath, handlers)
}

func (dg *DomainGroup) handle(method, relativePath string, handlers []gin.HandlerFunc) *DomainGroup {
	*dg.table = append(*dg.table, route{owner: dg, method: method, path: relativePath, handlers: handlers})
	return dg
}

// RegisterRoutes mounts this group's routes, subgroups included, on rg
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	for _, rt := range dg.own() {
		chain := append(dg.chainFrom(rt.owner), rt.handlers...)
		rg.Handle(rt.method, dg.pathTo(rt), chain...)
	}
}

// Routes lists the group's routes relative to where it is mounted
func (dg *DomainGroup) Routes() []RouteInfo {
	var out []RouteInfo
	for _, rt := range dg.own() {
		out = append(out, RouteInfo{Method: rt.method, Path: dg.pathTo(rt)})
	}
	return out
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// own returns the routes declared on dg or below it
func (dg *DomainGroup) own() []route {
	var out []route
	for _, rt := range *dg.table {
		for g := rt.owner; g != nil; g = g.parent {
			if g == dg {
				out = append(out, rt)
				break
			}
		}
	}
	return out
}

// lineage returns the groups from dg down to g, both included
func (dg *DomainGroup) lineage(g *DomainGroup) []*DomainGroup {
	var chain []*DomainGroup
	for ; g != nil; g = g.parent {
		chain = append([]*DomainGroup{g}, chain...)
		if g == dg {
			break
		}
	}
	return chain
}

func (dg *DomainGroup) pathTo(rt route) string {
	p := "/"
	for _, g := range dg.lineage(rt.owner) {
		p = path.Join(p, g.prefix)
	}
	return path.Join(p, rt.path)
}

func (dg *DomainGroup) chainFrom(owner *DomainGroup) []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	for _, g := range dg.lineage(owner) {
		chain = append(chain, g.middleware...)
	}
	return chain
}
