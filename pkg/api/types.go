package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// CreateEntityRequest creates a customer, organization or institution.
// The parent is carried in the URL.
type CreateEntityRequest struct {
	Name string `json:"name"`
}

// CreateOrganizationUnitRequest creates an organization unit under a
// customer (24-char parent) or an organization (48-char parent).
type CreateOrganizationUnitRequest struct {
	Parent string `json:"parent"`
	Name   string `json:"name"`
}

// UpdateEntityRequest renames a hierarchy node.
type UpdateEntityRequest struct {
	Name string `json:"name"`
}

// AddMemberRequest lists an institution in a unit's membership set.
type AddMemberRequest struct {
	Institution string `json:"institution"`
}

// OwnerRequest anchors a new user in the hierarchy. Ty is one of
// Customer, Organization, Institution, OrganizationUnit; ID is the
// composite identifier of that node.
type OwnerRequest struct {
	Ty string `json:"ty"`
	ID string `json:"id"`
}

// CreateUserRequest creates a user record.
type CreateUserRequest struct {
	Owner     OwnerRequest `json:"owner"`
	Username  string       `json:"username"`
	Firstname string       `json:"firstname,omitempty"`
	Lastname  string       `json:"lastname,omitempty"`
	Email     string       `json:"email,omitempty"`
	Groups    []string     `json:"groups,omitempty"`
}

// EntityResponse is the wire form of a hierarchy document. The id is
// the composite hex string.
type EntityResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Created  time.Time  `json:"created"`
	Modified *time.Time `json:"modified,omitempty"`
}

// OrganizationUnitResponse adds the membership set, as institution id
// strings.
type OrganizationUnitResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Members  []string   `json:"members"`
	Created  time.Time  `json:"created"`
	Modified *time.Time `json:"modified,omitempty"`
}

// UserResponse is the wire form of a user record.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Owner    string    `json:"owner"`
	Access   string    `json:"access"`
	Created  time.Time `json:"created"`
}

// DeletionReceipt acknowledges an asynchronous deletion: the root
// document is gone and the cascade task is queued.
type DeletionReceipt struct {
	Task   uuid.UUID `json:"task"`
	Status string    `json:"status"`
}

func entityResponse(id string, name string, created tenant.Modification, modified *tenant.Modification) EntityResponse {
	return EntityResponse{ID: id, Name: name, Created: created.At, Modified: stampTime(modified)}
}

func unitResponse(id ids.OrganizationUnitID, doc tenant.OrganizationUnit) OrganizationUnitResponse {
	members := make([]string, 0, len(doc.Members))
	for _, m := range doc.Members {
		members = append(members, ids.InstitutionID{Cid: m.Cid, Oid: m.Oid, ID: m.Iid}.String())
	}
	return OrganizationUnitResponse{
		ID:       id.String(),
		Name:     doc.Name,
		Members:  members,
		Created:  doc.Created.At,
		Modified: stampTime(doc.Modified),
	}
}

func stampTime(m *tenant.Modification) *time.Time {
	if m == nil {
		return nil
	}
	return &m.At
}

func userResponse(doc tenant.User, owner string) UserResponse {
	return UserResponse{
		ID:       doc.Details.UserID,
		Username: doc.Details.Username,
		Email:    doc.Details.Email,
		Owner:    owner,
		Access:   doc.Access,
		Created:  doc.Created.At,
	}
}
