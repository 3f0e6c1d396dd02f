package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/roles"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// createUser creates a user anchored at a hierarchy node
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" {
		httputil.WriteBadRequest(w, "username is required")
		return
	}

	owner, access, err := resolveOwner(req.Owner)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if !s.requireOwnerExists(w, r, owner) {
		return
	}

	doc := tenant.User{
		Owner:  owner,
		Access: access.String(),
		Groups: req.Groups,
		Details: tenant.UserDetails{
			UserID:    uuid.New(),
			Username:  req.Username,
			Firstname: req.Firstname,
			Lastname:  req.Lastname,
			Email:     req.Email,
			Enabled:   true,
		},
		Created: tenant.NewModification(uuid.Nil),
	}

	if err := s.store.InsertOne(r.Context(), tenant.UsersCollection, doc); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	s.reloadUsers(r.Context())
	httputil.WriteCreated(w, userResponse(doc, ownerString(owner)))
}

// getUser fetches one user record
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathUUID(r, "user_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var doc tenant.User
	err = s.store.FindOne(r.Context(), tenant.UsersCollection, storage.Filter{"_id": id}, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "user not found")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, userResponse(doc, ownerString(doc.Owner)))
}

// deleteUser removes one user record. No cascade: users own nothing.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathUUID(r, "user_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if _, err := s.store.DeleteMany(r.Context(), tenant.UsersCollection, storage.Filter{"_id": id}); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	s.reloadUsers(r.Context())
	httputil.WriteNoContent(w)
}

// resolveOwner translates the wire owner reference into the stored
// Owner and the access entry the user's role derives from.
func resolveOwner(req OwnerRequest) (tenant.Owner, roles.Access, error) {
	switch tenant.OwnerLevel(req.Ty) {
	case tenant.OwnerCustomer:
		id, err := ids.ParseCustomerID(req.ID)
		if err != nil {
			return tenant.Owner{}, roles.Access{}, err
		}
		return tenant.NewCustomerOwner(id), roles.NewAccess(roles.LevelCustomer, id), nil
	case tenant.OwnerOrganization:
		id, err := ids.ParseCustomerResourceID(req.ID)
		if err != nil {
			return tenant.Owner{}, roles.Access{}, err
		}
		return tenant.NewOrganizationOwner(id), roles.NewAccess(roles.LevelOrganization, id), nil
	case tenant.OwnerInstitution:
		id, err := ids.ParseOrganizationResourceID(req.ID)
		if err != nil {
			return tenant.Owner{}, roles.Access{}, err
		}
		return tenant.NewInstitutionOwner(id), roles.NewAccess(roles.LevelInstitution, id), nil
	case tenant.OwnerOrganizationUnit:
		id, err := ids.ParseOrganizationUnitID(req.ID)
		if err != nil {
			return tenant.Owner{}, roles.Access{}, err
		}
		return tenant.NewOrganizationUnitOwner(id), roles.NewAccess(roles.LevelOrganizationUnit, id), nil
	default:
		return tenant.Owner{}, roles.Access{}, fmt.Errorf("unknown owner level %q", req.Ty)
	}
}

// requireOwnerExists verifies the anchor node is present.
func (s *Server) requireOwnerExists(w http.ResponseWriter, r *http.Request, owner tenant.Owner) bool {
	ctx := r.Context()
	switch owner.Level {
	case tenant.OwnerCustomer:
		id, _ := owner.Customer()
		return s.requireExists(w, ctx, tenant.CustomersCollection,
			storage.Filter{"id._id": id.ID}, "customer")
	case tenant.OwnerOrganization:
		id, _ := owner.Organization()
		return s.requireExists(w, ctx, tenant.OrganizationsCollection,
			storage.Filter{"id.cid": id.Cid, "id._id": id.ID}, "organization")
	case tenant.OwnerInstitution:
		id, _ := owner.Institution()
		return s.requireExists(w, ctx, tenant.InstitutionsCollection,
			storage.Filter{"id.cid": id.Cid, "id.oid": id.Oid, "id._id": id.ID}, "institution")
	case tenant.OwnerOrganizationUnit:
		id, _ := owner.OrganizationUnit()
		return s.requireExists(w, ctx, tenant.OrganizationUnitsCollection,
			unitRootFilter(id), "organization unit")
	}
	httputil.WriteBadRequest(w, "unknown owner level")
	return false
}

// ownerString renders the owner's composite id.
func ownerString(owner tenant.Owner) string {
	switch owner.Level {
	case tenant.OwnerCustomer:
		if id, ok := owner.Customer(); ok {
			return id.String()
		}
	case tenant.OwnerOrganization:
		if id, ok := owner.Organization(); ok {
			return id.String()
		}
	case tenant.OwnerInstitution:
		if id, ok := owner.Institution(); ok {
			return id.String()
		}
	case tenant.OwnerOrganizationUnit:
		if id, ok := owner.OrganizationUnit(); ok {
			return id.String()
		}
	}
	return ""
}
