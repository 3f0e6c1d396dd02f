// Package api serves the hierarchy management HTTP API.
//
// # Overview
//
// The API exposes CRUD over the four hierarchy levels (customers,
// organizations, institutions, organization units) and user records.
// Creations provision the entity's realm role; deletions remove the
// root document, enqueue a cleanup task for the asynchronous cascade,
// and answer 202 with the task id. Renames stamp the modification and
// leave roles untouched, since role names derive from the id chain.
//
// # Routes
//
// Hierarchy:
//
//	POST   /api/v1/customers
//	GET    /api/v1/customers
//	GET    /api/v1/customers/{id}
//	PUT    /api/v1/customers/{id}
//	DELETE /api/v1/customers/{id}
//	POST   /api/v1/customers/{id}/organizations
//	GET    /api/v1/customers/{id}/organizations
//	GET    /api/v1/organizations/{id}
//	PUT    /api/v1/organizations/{id}
//	DELETE /api/v1/organizations/{id}
//	POST   /api/v1/organizations/{id}/institutions
//	GET    /api/v1/organizations/{id}/institutions
//	GET    /api/v1/institutions/{id}
//	PUT    /api/v1/institutions/{id}
//	DELETE /api/v1/institutions/{id}
//
// Organization units and membership:
//
//	POST   /api/v1/organization-units
//	GET    /api/v1/organization-units/{id}
//	PUT    /api/v1/organization-units/{id}
//	DELETE /api/v1/organization-units/{id}
//	POST   /api/v1/organization-units/{id}/members
//	DELETE /api/v1/organization-units/{id}/members/{member}
//
// Users:
//
//	POST   /api/v1/users
//	GET    /api/v1/users/{user_id}
//	DELETE /api/v1/users/{user_id}
//
// Identifiers in paths are the composite hex strings; their length
// encodes the level (24/48/72 characters).
//
// # Related Packages
//
//   - pkg/queue: deletion tasks are enqueued here
//   - pkg/cleanup: executes the queued cascades
//   - pkg/httputil: request/response plumbing
package api
