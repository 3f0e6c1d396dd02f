package ids

// Role-tagged wrappers over ID. They exist purely so a customer id
// cannot be handed to a call site expecting an organization id; each
// wraps exactly one ID.

// Cid is a customer-level identifier.
type Cid struct {
	ID ID `bson:"cid" json:"cid"`
}

// NewCid wraps an ID as a customer identifier.
func NewCid(id ID) Cid { return Cid{ID: id} }

// Hex returns the 24-character segment form.
func (c Cid) Hex() string { return c.ID.Hex() }

// Oid is an organization-level identifier.
type Oid struct {
	ID ID `bson:"oid" json:"oid"`
}

// NewOid wraps an ID as an organization identifier.
func NewOid(id ID) Oid { return Oid{ID: id} }

// Hex returns the 24-character segment form.
func (o Oid) Hex() string { return o.ID.Hex() }

// Iid is an institution-level identifier.
type Iid struct {
	ID ID `bson:"iid" json:"iid"`
}

// NewIid wraps an ID as an institution identifier.
func NewIid(id ID) Iid { return Iid{ID: id} }

// Hex returns the 24-character segment form.
func (i Iid) Hex() string { return i.ID.Hex() }

// Uid is an organization-unit-level identifier.
type Uid struct {
	ID ID `bson:"uid" json:"uid"`
}

// NewUid wraps an ID as an organization-unit identifier.
func NewUid(id ID) Uid { return Uid{ID: id} }

// Hex returns the 24-character segment form.
func (u Uid) Hex() string { return u.ID.Hex() }

// Strict identifier variants mirror the composite ids with every
// ancestor field mandatory. They are the only types accepted at the
// cleanup-task boundary, so a task can never reference a
// partially-specified node.

// StrictCustomerID is a fully-specified customer reference.
type StrictCustomerID struct {
	Cid Cid `bson:",inline" json:"cid"`
}

// StrictCustomerIDOf wraps a bare customer reference.
func StrictCustomerIDOf(c CustomerID) StrictCustomerID {
	return StrictCustomerID{Cid: NewCid(c.ID)}
}

func (s StrictCustomerID) String() string {
	return s.Cid.Hex()
}

// CustomerID unwraps into the bare reference.
func (s StrictCustomerID) CustomerID() CustomerID {
	return CustomerID{ID: s.Cid.ID}
}

// AccessChain returns the hex segments used for access-control naming.
func (s StrictCustomerID) AccessChain() []string {
	return []string{s.Cid.Hex()}
}

// ParseStrictCustomerID decodes a 24-character strict customer id.
func ParseStrictCustomerID(s string) (StrictCustomerID, error) {
	c, err := ParseCustomerID(s)
	if err != nil {
		return StrictCustomerID{}, err
	}
	return StrictCustomerIDOf(c), nil
}

// StrictOrganizationID is a fully-specified organization reference.
type StrictOrganizationID struct {
	Cid Cid `bson:",inline" json:"cid"`
	Oid Oid `bson:",inline" json:"oid"`
}

func (s StrictOrganizationID) String() string {
	return s.Cid.Hex() + s.Oid.Hex()
}

// CustomerResourceID converts into the customer-scoped resource shape
// used by store predicates.
func (s StrictOrganizationID) CustomerResourceID() CustomerResourceID {
	return CustomerResourceID{Cid: s.Cid.ID, ID: s.Oid.ID}
}

// AccessChain returns the hex segments used for access-control naming.
func (s StrictOrganizationID) AccessChain() []string {
	return []string{s.Cid.Hex(), s.Oid.Hex()}
}

// ParseStrictOrganizationID decodes a 48-character strict organization
// id; both segments are required.
func ParseStrictOrganizationID(s string) (StrictOrganizationID, error) {
	if len(s) != 48 {
		return StrictOrganizationID{}, &InvalidLengthError{Type: "StrictOrganizationID", Valid: []int{48}, Got: len(s)}
	}
	cid, err := requireSegment("StrictOrganizationID", "cid", s, 0)
	if err != nil {
		return StrictOrganizationID{}, err
	}
	oid, err := requireSegment("StrictOrganizationID", "oid", s, 24)
	if err != nil {
		return StrictOrganizationID{}, err
	}
	return StrictOrganizationID{Cid: NewCid(cid), Oid: NewOid(oid)}, nil
}

// StrictOrganizationIDFromEntity builds the strict form from a loose
// entity, validating the ancestor-chain invariant first.
func StrictOrganizationIDFromEntity(e EntityID) (StrictOrganizationID, error) {
	if err := e.Validate(); err != nil {
		return StrictOrganizationID{}, err
	}
	if e.Cid == nil {
		return StrictOrganizationID{}, &MissingFieldError{Type: "StrictOrganizationID", Field: "cid"}
	}
	if e.ID == nil {
		return StrictOrganizationID{}, &MissingFieldError{Type: "StrictOrganizationID", Field: "id"}
	}
	return StrictOrganizationID{Cid: NewCid(*e.Cid), Oid: NewOid(*e.ID)}, nil
}

// StrictInstitutionID is a fully-specified institution reference.
type StrictInstitutionID struct {
	Cid Cid `bson:",inline" json:"cid"`
	Oid Oid `bson:",inline" json:"oid"`
	Iid Iid `bson:",inline" json:"iid"`
}

func (s StrictInstitutionID) String() string {
	return s.Cid.Hex() + s.Oid.Hex() + s.Iid.Hex()
}

// OrganizationResourceID converts into the organization-scoped resource
// shape used by store predicates.
func (s StrictInstitutionID) OrganizationResourceID() OrganizationResourceID {
	return OrganizationResourceID{Cid: s.Cid.ID, Oid: s.Oid.ID, ID: s.Iid.ID}
}

// AccessChain returns the hex segments used for access-control naming.
func (s StrictInstitutionID) AccessChain() []string {
	return []string{s.Cid.Hex(), s.Oid.Hex(), s.Iid.Hex()}
}

// ParseStrictInstitutionID decodes a 72-character strict institution id;
// all three segments are required.
func ParseStrictInstitutionID(s string) (StrictInstitutionID, error) {
	if len(s) != 72 {
		return StrictInstitutionID{}, &InvalidLengthError{Type: "StrictInstitutionID", Valid: []int{72}, Got: len(s)}
	}
	cid, err := requireSegment("StrictInstitutionID", "cid", s, 0)
	if err != nil {
		return StrictInstitutionID{}, err
	}
	oid, err := requireSegment("StrictInstitutionID", "oid", s, 24)
	if err != nil {
		return StrictInstitutionID{}, err
	}
	iid, err := requireSegment("StrictInstitutionID", "iid", s, 48)
	if err != nil {
		return StrictInstitutionID{}, err
	}
	return StrictInstitutionID{Cid: NewCid(cid), Oid: NewOid(oid), Iid: NewIid(iid)}, nil
}

// StrictInstitutionIDFromEntity builds the strict form from a loose
// entity, validating the ancestor-chain invariant first.
func StrictInstitutionIDFromEntity(e EntityID) (StrictInstitutionID, error) {
	if err := e.Validate(); err != nil {
		return StrictInstitutionID{}, err
	}
	if e.Cid == nil {
		return StrictInstitutionID{}, &MissingFieldError{Type: "StrictInstitutionID", Field: "cid"}
	}
	if e.Oid == nil {
		return StrictInstitutionID{}, &MissingFieldError{Type: "StrictInstitutionID", Field: "oid"}
	}
	if e.ID == nil {
		return StrictInstitutionID{}, &MissingFieldError{Type: "StrictInstitutionID", Field: "id"}
	}
	return StrictInstitutionID{Cid: NewCid(*e.Cid), Oid: NewOid(*e.Oid), Iid: NewIid(*e.ID)}, nil
}

// StrictOrganizationUnitID is a fully-specified organization-unit
// reference. Oid is nil for the customer-rooted variant; every other
// field is mandatory.
type StrictOrganizationUnitID struct {
	Cid Cid  `bson:",inline" json:"cid"`
	Oid *Oid `bson:",inline" json:"oid,omitempty"`
	Uid Uid  `bson:",inline" json:"uid"`
}

func (s StrictOrganizationUnitID) String() string {
	if s.Oid != nil {
		return s.Cid.Hex() + s.Oid.Hex() + s.Uid.Hex()
	}
	return s.Cid.Hex() + s.Uid.Hex()
}

// OrganizationUnitID converts into the composite reference.
func (s StrictOrganizationUnitID) OrganizationUnitID() OrganizationUnitID {
	u := OrganizationUnitID{Cid: s.Cid.ID, ID: s.Uid.ID}
	if s.Oid != nil {
		u.Oid = ref(s.Oid.ID)
	}
	return u
}

// AccessChain returns the hex segments used for access-control naming.
func (s StrictOrganizationUnitID) AccessChain() []string {
	return s.OrganizationUnitID().AccessChain()
}

// ParseStrictOrganizationUnitID decodes a 48- or 72-character strict
// organization-unit id.
func ParseStrictOrganizationUnitID(s string) (StrictOrganizationUnitID, error) {
	u, err := ParseOrganizationUnitID(s)
	if err != nil {
		if le, ok := err.(*InvalidLengthError); ok {
			return StrictOrganizationUnitID{}, &InvalidLengthError{Type: "StrictOrganizationUnitID", Valid: le.Valid, Got: le.Got}
		}
		return StrictOrganizationUnitID{}, err
	}
	return StrictOrganizationUnitIDOf(u), nil
}

// StrictOrganizationUnitIDOf wraps a composite organization-unit
// reference.
func StrictOrganizationUnitIDOf(u OrganizationUnitID) StrictOrganizationUnitID {
	s := StrictOrganizationUnitID{Cid: NewCid(u.Cid), Uid: NewUid(u.ID)}
	if u.Oid != nil {
		o := NewOid(*u.Oid)
		s.Oid = &o
	}
	return s
}

// StrictOrganizationUnitIDFromEntity builds the strict form from a loose
// entity, validating the ancestor-chain invariant first.
func StrictOrganizationUnitIDFromEntity(e EntityID) (StrictOrganizationUnitID, error) {
	if err := e.Validate(); err != nil {
		return StrictOrganizationUnitID{}, err
	}
	u, ok := e.AsOrganizationUnitID()
	if !ok {
		field := "cid"
		if e.Cid != nil {
			field = "id"
		}
		return StrictOrganizationUnitID{}, &MissingFieldError{Type: "StrictOrganizationUnitID", Field: field}
	}
	return StrictOrganizationUnitIDOf(u), nil
}

// StrictEntityID is the four-field fully-qualified identifier.
type StrictEntityID struct {
	Cid ID `bson:"cid" json:"cid"`
	Oid ID `bson:"oid" json:"oid"`
	Iid ID `bson:"iid" json:"iid"`
	ID  ID `bson:"_id" json:"id"`
}

// ParseStrictEntityID decodes a 96-character identifier with every
// segment required.
func ParseStrictEntityID(s string) (StrictEntityID, error) {
	if len(s) != 96 {
		return StrictEntityID{}, &InvalidLengthError{Type: "StrictEntityID", Valid: []int{96}, Got: len(s)}
	}
	cid, err := requireSegment("StrictEntityID", "cid", s, 0)
	if err != nil {
		return StrictEntityID{}, err
	}
	oid, err := requireSegment("StrictEntityID", "oid", s, 24)
	if err != nil {
		return StrictEntityID{}, err
	}
	iid, err := requireSegment("StrictEntityID", "iid", s, 48)
	if err != nil {
		return StrictEntityID{}, err
	}
	id, err := requireSegment("StrictEntityID", "id", s, 72)
	if err != nil {
		return StrictEntityID{}, err
	}
	return StrictEntityID{Cid: cid, Oid: oid, Iid: iid, ID: id}, nil
}

func (s StrictEntityID) String() string {
	return s.Cid.Hex() + s.Oid.Hex() + s.Iid.Hex() + s.ID.Hex()
}

// Compare orders by cid, oid, iid, id.
func (s StrictEntityID) Compare(o StrictEntityID) int {
	if c := compareID(s.Cid, o.Cid); c != 0 {
		return c
	}
	if c := compareID(s.Oid, o.Oid); c != 0 {
		return c
	}
	if c := compareID(s.Iid, o.Iid); c != 0 {
		return c
	}
	return compareID(s.ID, o.ID)
}
