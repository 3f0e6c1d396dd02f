package tenant

import (
	"fmt"

	"github.com/platinummonkey/tenancy/pkg/ids"
)

// OwnerLevel names the hierarchy level a record is anchored at.
type OwnerLevel string

const (
	OwnerCustomer         OwnerLevel = "Customer"
	OwnerOrganization     OwnerLevel = "Organization"
	OwnerInstitution      OwnerLevel = "Institution"
	OwnerOrganizationUnit OwnerLevel = "OrganizationUnit"
)

// Owner records the hierarchy level a dependent record belongs to and
// the identifier chain of its anchor node. It is stored nested on the
// user document as {ty, entityId} so cleanup predicates can match
// owner.entityId.<field>.
type Owner struct {
	Level    OwnerLevel   `bson:"ty" json:"ty"`
	EntityID ids.EntityID `bson:"entityId" json:"entityId"`
}

// NewCustomerOwner anchors a record at customer level.
func NewCustomerOwner(c ids.CustomerID) Owner {
	return Owner{Level: OwnerCustomer, EntityID: ids.EntityID{Cid: &c.ID}}
}

// NewOrganizationOwner anchors a record at organization level.
func NewOrganizationOwner(o ids.OrganizationID) Owner {
	e := o.EntityID()
	return Owner{Level: OwnerOrganization, EntityID: ids.EntityID{Cid: e.Cid, Oid: e.ID}}
}

// NewInstitutionOwner anchors a record at institution level.
func NewInstitutionOwner(i ids.InstitutionID) Owner {
	e := i.EntityID()
	return Owner{Level: OwnerInstitution, EntityID: ids.EntityID{Cid: e.Cid, Oid: e.Oid, Iid: e.ID}}
}

// NewOrganizationUnitOwner anchors a record at organization-unit level.
// The unit's own id is carried in the iid slot so both the customer- and
// organization-rooted variants fit one shape.
func NewOrganizationUnitOwner(u ids.OrganizationUnitID) Owner {
	e := u.EntityID()
	return Owner{Level: OwnerOrganizationUnit, EntityID: ids.EntityID{Cid: e.Cid, Oid: e.Oid, Iid: e.ID}}
}

// Validate checks the level tag and the entity's ancestor chain.
func (o Owner) Validate() error {
	switch o.Level {
	case OwnerCustomer, OwnerOrganization, OwnerInstitution, OwnerOrganizationUnit:
	default:
		return fmt.Errorf("unknown owner level %q", o.Level)
	}
	return o.EntityID.Validate()
}

// Customer projects onto the owning customer; every level carries one.
func (o Owner) Customer() (ids.CustomerID, bool) {
	if o.EntityID.Cid == nil {
		return ids.CustomerID{}, false
	}
	return ids.CustomerID{ID: *o.EntityID.Cid}, true
}

// Organization projects onto the owning organization. Records anchored
// at customer level, and units rooted directly under a customer, have
// none.
func (o Owner) Organization() (ids.OrganizationID, bool) {
	switch o.Level {
	case OwnerOrganization, OwnerInstitution, OwnerOrganizationUnit:
		if o.EntityID.Cid == nil || o.EntityID.Oid == nil {
			return ids.OrganizationID{}, false
		}
		return ids.OrganizationID{Cid: *o.EntityID.Cid, ID: *o.EntityID.Oid}, true
	default:
		return ids.OrganizationID{}, false
	}
}

// Institution projects onto the owning institution, present only for
// institution-anchored records.
func (o Owner) Institution() (ids.InstitutionID, bool) {
	if o.Level != OwnerInstitution {
		return ids.InstitutionID{}, false
	}
	if o.EntityID.Cid == nil || o.EntityID.Oid == nil || o.EntityID.Iid == nil {
		return ids.InstitutionID{}, false
	}
	return ids.InstitutionID{Cid: *o.EntityID.Cid, Oid: *o.EntityID.Oid, ID: *o.EntityID.Iid}, true
}

// OrganizationUnit projects onto the owning organization unit, present
// only for unit-anchored records. The variant follows from whether the
// chain carries an organization.
func (o Owner) OrganizationUnit() (ids.OrganizationUnitID, bool) {
	if o.Level != OwnerOrganizationUnit {
		return ids.OrganizationUnitID{}, false
	}
	if o.EntityID.Cid == nil || o.EntityID.Iid == nil {
		return ids.OrganizationUnitID{}, false
	}
	u := ids.OrganizationUnitID{Cid: *o.EntityID.Cid, ID: *o.EntityID.Iid}
	if o.EntityID.Oid != nil {
		oid := *o.EntityID.Oid
		u.Oid = &oid
	}
	return u, true
}
