package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/keycloak"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/roles"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// createCustomer creates a new hierarchy root
func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}

	id := ids.CustomerID{ID: ids.NewID()}
	doc := tenant.Customer{
		ID:      id.EntityID(),
		Name:    req.Name,
		Created: tenant.NewModification(uuid.Nil),
	}

	if !s.persistEntity(w, r.Context(), tenant.CustomersCollection, doc,
		roles.NewAccess(roles.LevelCustomer, id)) {
		return
	}
	httputil.WriteCreated(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// listCustomers lists every customer
func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	var docs []tenant.Customer
	if err := s.store.Find(r.Context(), tenant.CustomersCollection, storage.Filter{}, &docs); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	out := make([]EntityResponse, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc.ID.AsCustomerID()
		if !ok {
			continue
		}
		out = append(out, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
	}
	httputil.WriteSuccess(w, out)
}

// getCustomer fetches one customer by id
func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseCustomerID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var doc tenant.Customer
	err = s.store.FindOne(r.Context(), tenant.CustomersCollection, storage.Filter{"id._id": id.ID}, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "customer not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// updateCustomer renames a customer
func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseCustomerID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := storage.Filter{"id._id": id.ID}
	var doc tenant.Customer
	if !s.renameEntity(w, r, tenant.CustomersCollection, filter, "customer", &doc) {
		return
	}
	httputil.WriteSuccess(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// deleteCustomer removes the customer document and queues the cascade
func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseStrictCustomerID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.acceptDeletion(w, r,
		tenant.CustomersCollection,
		storage.Filter{"id._id": id.Cid.ID},
		queue.NewCustomerCleanup(id))
}

// createOrganization creates an organization under a customer
func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	parent, err := ids.ParseCustomerID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req CreateEntityRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if !s.requireExists(w, r.Context(), tenant.CustomersCollection,
		storage.Filter{"id._id": parent.ID}, "customer") {
		return
	}

	id := parent.Resource(ids.NewID())
	doc := tenant.Organization{
		ID:      id.EntityID(),
		Name:    req.Name,
		Created: tenant.NewModification(uuid.Nil),
	}

	if !s.persistEntity(w, r.Context(), tenant.OrganizationsCollection, doc,
		roles.NewAccess(roles.LevelOrganization, id)) {
		return
	}
	httputil.WriteCreated(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// listOrganizations lists the organizations of one customer
func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	parent, err := ids.ParseCustomerID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var docs []tenant.Organization
	if err := s.store.Find(r.Context(), tenant.OrganizationsCollection,
		storage.Filter{"id.cid": parent.ID}, &docs); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	out := make([]EntityResponse, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc.ID.AsOrganizationID()
		if !ok {
			continue
		}
		out = append(out, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
	}
	httputil.WriteSuccess(w, out)
}

// getOrganization fetches one organization by composite id
func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseCustomerResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var doc tenant.Organization
	err = s.store.FindOne(r.Context(), tenant.OrganizationsCollection,
		storage.Filter{"id.cid": id.Cid, "id._id": id.ID}, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "organization not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// updateOrganization renames an organization
func (s *Server) updateOrganization(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseCustomerResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := storage.Filter{"id.cid": id.Cid, "id._id": id.ID}
	var doc tenant.Organization
	if !s.renameEntity(w, r, tenant.OrganizationsCollection, filter, "organization", &doc) {
		return
	}
	httputil.WriteSuccess(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// deleteOrganization removes the organization document and queues the cascade
func (s *Server) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseStrictOrganizationID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.acceptDeletion(w, r,
		tenant.OrganizationsCollection,
		storage.Filter{"id.cid": id.Cid.ID, "id._id": id.Oid.ID},
		queue.NewOrganizationCleanup(id))
}

// createInstitution creates an institution under an organization
func (s *Server) createInstitution(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	parent, err := ids.ParseCustomerResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req CreateEntityRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if !s.requireExists(w, r.Context(), tenant.OrganizationsCollection,
		storage.Filter{"id.cid": parent.Cid, "id._id": parent.ID}, "organization") {
		return
	}

	id := parent.Resource(ids.NewID())
	doc := tenant.Institution{
		ID:      id.EntityID(),
		Name:    req.Name,
		Created: tenant.NewModification(uuid.Nil),
	}

	if !s.persistEntity(w, r.Context(), tenant.InstitutionsCollection, doc,
		roles.NewAccess(roles.LevelInstitution, id)) {
		return
	}
	httputil.WriteCreated(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// listInstitutions lists the institutions of one organization
func (s *Server) listInstitutions(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	parent, err := ids.ParseCustomerResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var docs []tenant.Institution
	if err := s.store.Find(r.Context(), tenant.InstitutionsCollection,
		storage.Filter{"id.cid": parent.Cid, "id.oid": parent.ID}, &docs); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	out := make([]EntityResponse, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc.ID.AsInstitutionID()
		if !ok {
			continue
		}
		out = append(out, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
	}
	httputil.WriteSuccess(w, out)
}

// getInstitution fetches one institution by composite id
func (s *Server) getInstitution(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseOrganizationResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var doc tenant.Institution
	err = s.store.FindOne(r.Context(), tenant.InstitutionsCollection,
		storage.Filter{"id.cid": id.Cid, "id.oid": id.Oid, "id._id": id.ID}, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "institution not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// updateInstitution renames an institution
func (s *Server) updateInstitution(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseOrganizationResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := storage.Filter{"id.cid": id.Cid, "id.oid": id.Oid, "id._id": id.ID}
	var doc tenant.Institution
	if !s.renameEntity(w, r, tenant.InstitutionsCollection, filter, "institution", &doc) {
		return
	}
	httputil.WriteSuccess(w, entityResponse(id.String(), doc.Name, doc.Created, doc.Modified))
}

// deleteInstitution removes the institution document and queues the cascade
func (s *Server) deleteInstitution(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseStrictInstitutionID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.acceptDeletion(w, r,
		tenant.InstitutionsCollection,
		storage.Filter{"id.cid": id.Cid.ID, "id.oid": id.Oid.ID, "id._id": id.Iid.ID},
		queue.NewInstitutionCleanup(id))
}

// persistEntity stores a hierarchy document, provisions its role, and
// refreshes the hierarchy read model. Role creation tolerates an
// already-present role, so retried creations converge.
func (s *Server) persistEntity(w http.ResponseWriter, ctx context.Context, collection string, doc interface{}, access roles.Access) bool {
	if err := s.store.InsertOne(ctx, collection, doc); err != nil {
		httputil.WriteInternalError(w, err)
		return false
	}
	role := keycloak.Role{
		Name:        access.String(),
		Description: fmt.Sprintf("%s access", access.Level),
	}
	if err := s.roles.CreateRole(ctx, role); err != nil {
		httputil.WriteInternalError(w, fmt.Errorf("provisioning role: %w", err))
		return false
	}
	s.reloadHierarchy(ctx)
	return true
}

// renameEntity reads the update request, applies the name change with a
// modification stamp, refreshes the hierarchy read model, and decodes
// the updated document into out. The role is derived from the id chain,
// not the name, so renames never touch the access-control store.
func (s *Server) renameEntity(w http.ResponseWriter, r *http.Request, collection string, filter storage.Filter, what string, out interface{}) bool {
	var req UpdateEntityRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return false
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return false
	}
	ctx := r.Context()
	if !s.requireExists(w, ctx, collection, filter, what) {
		return false
	}
	if _, err := s.store.UpdateMany(ctx, collection, filter, storage.Update{
		"$set": storage.Filter{
			"name":     req.Name,
			"modified": tenant.NewModification(uuid.Nil),
		},
	}); err != nil {
		httputil.WriteInternalError(w, err)
		return false
	}
	if err := s.store.FindOne(ctx, collection, filter, out); err != nil {
		httputil.WriteInternalError(w, err)
		return false
	}
	s.reloadHierarchy(ctx)
	return true
}

// requireExists answers whether a parent document exists, writing the
// 404 when it does not.
func (s *Server) requireExists(w http.ResponseWriter, ctx context.Context, collection string, filter storage.Filter, what string) bool {
	var doc struct{}
	err := s.store.FindOne(ctx, collection, filter, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, what+" not found")
		return false
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return false
	}
	return true
}

// acceptDeletion removes the root document, enqueues the cascade task,
// and acknowledges with 202. A missing root is not an error: the
// cascade may still have work to do from an earlier partial failure.
func (s *Server) acceptDeletion(w http.ResponseWriter, r *http.Request, collection string, rootFilter storage.Filter, task queue.CleanupTask) {
	ctx := r.Context()
	if _, err := s.store.DeleteMany(ctx, collection, rootFilter); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	messageID, err := s.queue.Enqueue(ctx, task)
	if err != nil {
		httputil.WriteInternalError(w, fmt.Errorf("queueing cleanup: %w", err))
		return
	}
	s.reloadHierarchy(ctx)
	s.logger.WithFields(map[string]interface{}{
		"task_id":    task.ID.String(),
		"task_type":  string(task.Type),
		"message_id": messageID,
	}).Info("deletion accepted")
	httputil.WriteAccepted(w, DeletionReceipt{Task: task.ID, Status: "accepted"})
}
