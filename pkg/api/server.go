package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenancy/pkg/cache"
	"github.com/platinummonkey/tenancy/pkg/cleanup"
	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/keycloak"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Enqueuer is the queue surface the server needs. Implemented by
// queue.Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.CleanupTask) (string, error)
}

// Config carries the server's collaborators.
type Config struct {
	Store    storage.Store
	Queue    Enqueuer
	Roles    keycloak.RoleManager
	Reloader cleanup.Reloader
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

// Server serves the hierarchy management API: CRUD over the four entity
// levels and users, with deletions handed off to the asynchronous
// cleanup workflow.
type Server struct {
	store    storage.Store
	queue    Enqueuer
	roles    keycloak.RoleManager
	reloader cleanup.Reloader
	logger   *observability.Logger
	metrics  *observability.Metrics
	router   *mux.Router
}

// NewServer creates a new API server
func NewServer(config Config) *Server {
	s := &Server{
		store:    config.Store,
		queue:    config.Queue,
		roles:    config.Roles,
		reloader: config.Reloader,
		logger:   config.Logger,
		metrics:  config.Metrics,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Customer routes
	s.router.HandleFunc("/api/v1/customers", s.createCustomer).Methods("POST")
	s.router.HandleFunc("/api/v1/customers", s.listCustomers).Methods("GET")
	s.router.HandleFunc("/api/v1/customers/{id}", s.getCustomer).Methods("GET")
	s.router.HandleFunc("/api/v1/customers/{id}", s.updateCustomer).Methods("PUT")
	s.router.HandleFunc("/api/v1/customers/{id}", s.deleteCustomer).Methods("DELETE")

	// Organization routes
	s.router.HandleFunc("/api/v1/customers/{id}/organizations", s.createOrganization).Methods("POST")
	s.router.HandleFunc("/api/v1/customers/{id}/organizations", s.listOrganizations).Methods("GET")
	s.router.HandleFunc("/api/v1/organizations/{id}", s.getOrganization).Methods("GET")
	s.router.HandleFunc("/api/v1/organizations/{id}", s.updateOrganization).Methods("PUT")
	s.router.HandleFunc("/api/v1/organizations/{id}", s.deleteOrganization).Methods("DELETE")

	// Institution routes
	s.router.HandleFunc("/api/v1/organizations/{id}/institutions", s.createInstitution).Methods("POST")
	s.router.HandleFunc("/api/v1/organizations/{id}/institutions", s.listInstitutions).Methods("GET")
	s.router.HandleFunc("/api/v1/institutions/{id}", s.getInstitution).Methods("GET")
	s.router.HandleFunc("/api/v1/institutions/{id}", s.updateInstitution).Methods("PUT")
	s.router.HandleFunc("/api/v1/institutions/{id}", s.deleteInstitution).Methods("DELETE")

	// Organization unit routes
	s.router.HandleFunc("/api/v1/organization-units", s.createOrganizationUnit).Methods("POST")
	s.router.HandleFunc("/api/v1/organization-units/{id}", s.getOrganizationUnit).Methods("GET")
	s.router.HandleFunc("/api/v1/organization-units/{id}", s.updateOrganizationUnit).Methods("PUT")
	s.router.HandleFunc("/api/v1/organization-units/{id}", s.deleteOrganizationUnit).Methods("DELETE")
	s.router.HandleFunc("/api/v1/organization-units/{id}/members", s.addMember).Methods("POST")
	s.router.HandleFunc("/api/v1/organization-units/{id}/members/{member}", s.removeMember).Methods("DELETE")

	// User routes
	s.router.HandleFunc("/api/v1/users", s.createUser).Methods("POST")
	s.router.HandleFunc("/api/v1/users/{user_id}", s.getUser).Methods("GET")
	s.router.HandleFunc("/api/v1/users/{user_id}", s.deleteUser).Methods("DELETE")
}

// Handler returns the full middleware-wrapped handler chain.
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.RecoveryMiddleware(s.logger),
		observability.HTTPMetricsMiddleware(s.metrics),
	)
	return chain(s.router)
}

// Router exposes the bare router. Used by tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// reloadCaches rebuilds the read models after a synchronous mutation and
// fans the invalidation out to the other instances. Failures are logged,
// not surfaced: the mutation itself is already durable.
func (s *Server) reloadCaches(ctx context.Context, names ...string) {
	if err := s.reloader.Reload(ctx, names...); err != nil {
		s.logger.WithError(err).Warn("cache reload after mutation failed")
		return
	}
	for _, name := range names {
		s.metrics.CacheReloadsTotal.WithLabelValues(name).Inc()
	}
}

// reloadHierarchy refreshes the customer hierarchy read model.
func (s *Server) reloadHierarchy(ctx context.Context) {
	s.reloadCaches(ctx, cache.CustomerCacheName)
}

// reloadUsers refreshes the user read model.
func (s *Server) reloadUsers(ctx context.Context) {
	s.reloadCaches(ctx, cache.UserCacheName)
}
