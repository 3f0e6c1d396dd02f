package ids

import "strings"

// EntityID is the loose universal identifier: every field optional. It is
// the parse target for any composite identifier and the projection target
// when downgrading specificity.
//
// Structural invariant (enforced by Validate, not by the type): a set Oid
// or Iid requires a set Cid. Iid without Oid is a valid chain: references
// to customer-rooted organization units carry the unit id in the iid slot.
type EntityID struct {
	ID  *ID `bson:"_id,omitempty" json:"id,omitempty"`
	Cid *ID `bson:"cid,omitempty" json:"cid,omitempty"`
	Oid *ID `bson:"oid,omitempty" json:"oid,omitempty"`
	Iid *ID `bson:"iid,omitempty" json:"iid,omitempty"`
}

// entityIDLengths is the set of canonical encoded lengths for EntityID.
var entityIDLengths = []int{24, 48, 72, 96}

// ParseEntityID decodes a canonical identifier string of 24, 48, 72 or 96
// characters. Segments are assigned in ancestor-to-descendant order:
// cid, oid, iid, id. Sentinel segments decode to absent fields.
func ParseEntityID(s string) (EntityID, error) {
	var e EntityID
	switch len(s) {
	case 96:
		id, err := parseSegment(s, 72)
		if err != nil {
			return EntityID{}, err
		}
		e.ID = id
		fallthrough
	case 72:
		iid, err := parseSegment(s, 48)
		if err != nil {
			return EntityID{}, err
		}
		e.Iid = iid
		fallthrough
	case 48:
		oid, err := parseSegment(s, 24)
		if err != nil {
			return EntityID{}, err
		}
		e.Oid = oid
		fallthrough
	case 24:
		cid, err := parseSegment(s, 0)
		if err != nil {
			return EntityID{}, err
		}
		e.Cid = cid
	default:
		return EntityID{}, &InvalidLengthError{Type: "EntityID", Valid: entityIDLengths, Got: len(s)}
	}
	if err := e.Validate(); err != nil {
		return EntityID{}, err
	}
	return e, nil
}

// String renders the canonical 96-character form, substituting the
// sentinel for absent fields.
func (e EntityID) String() string {
	var b strings.Builder
	b.Grow(4 * SegmentLen)
	b.WriteString(formatSegment(e.Cid))
	b.WriteString(formatSegment(e.Oid))
	b.WriteString(formatSegment(e.Iid))
	b.WriteString(formatSegment(e.ID))
	return b.String()
}

// Validate enforces the ancestor-chain invariant: any set descendant
// field requires Cid. Oid is not required under Iid because chains
// referencing a customer-rooted organization unit carry its id in the
// iid slot with no organization between.
func (e EntityID) Validate() error {
	if (e.Oid != nil || e.Iid != nil) && e.Cid == nil {
		return &MissingFieldError{Type: "EntityID", Field: "cid"}
	}
	return nil
}

// WithCustomer returns a copy with the customer ancestor set.
func (e EntityID) WithCustomer(cid ID) EntityID {
	e.Cid = ref(cid)
	return e
}

// AsCustomerID projects the entity onto a bare customer reference. The
// entity's own id is the customer id at this level.
func (e EntityID) AsCustomerID() (CustomerID, bool) {
	if e.ID == nil {
		return CustomerID{}, false
	}
	return CustomerID{ID: *e.ID}, true
}

// AsOrganizationID projects onto an organization reference; requires the
// customer ancestor and the entity's own id.
func (e EntityID) AsOrganizationID() (OrganizationID, bool) {
	if e.Cid == nil || e.ID == nil {
		return OrganizationID{}, false
	}
	return OrganizationID{Cid: *e.Cid, ID: *e.ID}, true
}

// AsInstitutionID projects onto an institution reference; requires the
// full customer and organization ancestor chain.
func (e EntityID) AsInstitutionID() (InstitutionID, bool) {
	if e.Cid == nil || e.Oid == nil || e.ID == nil {
		return InstitutionID{}, false
	}
	return InstitutionID{Cid: *e.Cid, Oid: *e.Oid, ID: *e.ID}, true
}

// AsOrganizationUnitID projects onto an organization-unit reference. The
// unit is organization-rooted when the entity carries an Oid, otherwise
// customer-rooted.
func (e EntityID) AsOrganizationUnitID() (OrganizationUnitID, bool) {
	if e.Cid == nil || e.ID == nil {
		return OrganizationUnitID{}, false
	}
	return OrganizationUnitID{Cid: *e.Cid, Oid: clone(e.Oid), ID: *e.ID}, true
}

// Compare orders entities by cid, oid, iid, id with absent fields first.
func (e EntityID) Compare(o EntityID) int {
	if c := compareSegment(e.Cid, o.Cid); c != 0 {
		return c
	}
	if c := compareSegment(e.Oid, o.Oid); c != 0 {
		return c
	}
	if c := compareSegment(e.Iid, o.Iid); c != 0 {
		return c
	}
	return compareSegment(e.ID, o.ID)
}

// Equal reports whether both entities carry identical fields.
func (e EntityID) Equal(o EntityID) bool {
	return e.Compare(o) == 0
}
