package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/roles"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// createOrganizationUnit creates a unit under a customer or an
// organization, depending on the parent id length
func (s *Server) createOrganizationUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationUnitRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}

	var id ids.OrganizationUnitID
	switch len(req.Parent) {
	case 24:
		parent, err := ids.ParseCustomerID(req.Parent)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		if !s.requireExists(w, r.Context(), tenant.CustomersCollection,
			storage.Filter{"id._id": parent.ID}, "customer") {
			return
		}
		id = ids.OrganizationUnitID{Cid: parent.ID, ID: ids.NewID()}
	case 48:
		parent, err := ids.ParseCustomerResourceID(req.Parent)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		if !s.requireExists(w, r.Context(), tenant.OrganizationsCollection,
			storage.Filter{"id.cid": parent.Cid, "id._id": parent.ID}, "organization") {
			return
		}
		oid := parent.ID
		id = ids.OrganizationUnitID{Cid: parent.Cid, Oid: &oid, ID: ids.NewID()}
	default:
		httputil.WriteBadRequest(w, "parent must be a customer or organization id")
		return
	}

	doc := tenant.OrganizationUnit{
		ID:      id.EntityID(),
		Name:    req.Name,
		Members: []tenant.Member{},
		Created: tenant.NewModification(uuid.Nil),
	}

	if !s.persistEntity(w, r.Context(), tenant.OrganizationUnitsCollection, doc,
		roles.NewAccess(roles.LevelOrganizationUnit, id)) {
		return
	}
	httputil.WriteCreated(w, unitResponse(id, doc))
}

// getOrganizationUnit fetches one unit by composite id
func (s *Server) getOrganizationUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.unitFromPath(w, r)
	if !ok {
		return
	}

	doc, ok := s.findUnit(w, r, id)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, unitResponse(id, doc))
}

// updateOrganizationUnit renames a unit; membership changes go through
// the member routes
func (s *Server) updateOrganizationUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.unitFromPath(w, r)
	if !ok {
		return
	}

	var doc tenant.OrganizationUnit
	if !s.renameEntity(w, r, tenant.OrganizationUnitsCollection, unitRootFilter(id), "organization unit", &doc) {
		return
	}
	httputil.WriteSuccess(w, unitResponse(id, doc))
}

// deleteOrganizationUnit removes the unit document and queues the cascade
func (s *Server) deleteOrganizationUnit(w http.ResponseWriter, r *http.Request) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	id, err := ids.ParseStrictOrganizationUnitID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.acceptDeletion(w, r,
		tenant.OrganizationUnitsCollection,
		unitRootFilter(id.OrganizationUnitID()),
		queue.NewOrganizationUnitCleanup(id))
}

// addMember lists an institution in the unit's membership set. The
// institution must exist and belong to the unit's customer.
func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.unitFromPath(w, r)
	if !ok {
		return
	}

	var req AddMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	inst, err := ids.ParseOrganizationResourceID(req.Institution)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if inst.Cid != id.Cid {
		httputil.WriteBadRequest(w, "institution belongs to a different customer")
		return
	}
	if !s.requireExists(w, r.Context(), tenant.InstitutionsCollection,
		storage.Filter{"id.cid": inst.Cid, "id.oid": inst.Oid, "id._id": inst.ID}, "institution") {
		return
	}

	doc, ok := s.findUnit(w, r, id)
	if !ok {
		return
	}

	member := tenant.MemberOf(inst)
	for _, existing := range doc.Members {
		if existing == member {
			httputil.WriteSuccess(w, unitResponse(id, doc))
			return
		}
	}
	doc.Members = append(doc.Members, member)

	if _, err := s.store.UpdateMany(r.Context(), tenant.OrganizationUnitsCollection,
		unitRootFilter(id),
		storage.Update{"$set": storage.Filter{"members": doc.Members}}); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	s.reloadHierarchy(r.Context())
	httputil.WriteSuccess(w, unitResponse(id, doc))
}

// removeMember pulls an institution from the unit's membership set.
// Removing an absent member succeeds.
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.unitFromPath(w, r)
	if !ok {
		return
	}
	raw, err := httputil.PathParam(r, "member")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	inst, err := ids.ParseOrganizationResourceID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if !s.requireExists(w, r.Context(), tenant.OrganizationUnitsCollection,
		unitRootFilter(id), "organization unit") {
		return
	}

	member := tenant.MemberOf(inst)
	if _, err := s.store.UpdateMany(r.Context(), tenant.OrganizationUnitsCollection,
		unitRootFilter(id),
		storage.Update{"$pull": storage.Filter{"members": storage.Filter{
			"cid": member.Cid, "oid": member.Oid, "iid": member.Iid,
		}}}); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	s.reloadHierarchy(r.Context())
	httputil.WriteNoContent(w)
}

func (s *Server) unitFromPath(w http.ResponseWriter, r *http.Request) (ids.OrganizationUnitID, bool) {
	raw, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return ids.OrganizationUnitID{}, false
	}
	id, err := ids.ParseOrganizationUnitID(raw)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return ids.OrganizationUnitID{}, false
	}
	return id, true
}

func (s *Server) findUnit(w http.ResponseWriter, r *http.Request, id ids.OrganizationUnitID) (tenant.OrganizationUnit, bool) {
	var doc tenant.OrganizationUnit
	err := s.store.FindOne(r.Context(), tenant.OrganizationUnitsCollection, unitRootFilter(id), &doc)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "organization unit not found")
		return tenant.OrganizationUnit{}, false
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return tenant.OrganizationUnit{}, false
	}
	return doc, true
}

func unitRootFilter(id ids.OrganizationUnitID) storage.Filter {
	filter := storage.Filter{"id.cid": id.Cid, "id._id": id.ID}
	if id.Oid != nil {
		filter["id.oid"] = *id.Oid
	}
	return filter
}
