package ids

import "strings"

// CustomerID is a bare customer reference.
type CustomerID struct {
	ID ID `bson:"_id" json:"id"`
}

// ParseCustomerID decodes a 24-character customer identifier. The
// sentinel is rejected: a customer reference is never absent.
func ParseCustomerID(s string) (CustomerID, error) {
	if len(s) != 24 {
		return CustomerID{}, &InvalidLengthError{Type: "CustomerID", Valid: []int{24}, Got: len(s)}
	}
	id, err := requireSegment("CustomerID", "id", s, 0)
	if err != nil {
		return CustomerID{}, err
	}
	return CustomerID{ID: id}, nil
}

func (c CustomerID) String() string {
	return c.ID.Hex()
}

// EntityID widens the reference into the loose form. The customer's own
// id occupies the id slot, matching how customer documents are keyed.
func (c CustomerID) EntityID() EntityID {
	return EntityID{ID: ref(c.ID)}
}

// Resource widens the customer reference into a customer-scoped resource
// identifier for a known child id.
func (c CustomerID) Resource(id ID) CustomerResourceID {
	return CustomerResourceID{Cid: c.ID, ID: id}
}

// AccessChain returns the hex segments used for access-control naming.
func (c CustomerID) AccessChain() []string {
	return []string{c.ID.Hex()}
}

// Compare orders customer references by id.
func (c CustomerID) Compare(o CustomerID) int {
	return compareID(c.ID, o.ID)
}

// CustomerResourceID identifies a resource scoped to one customer. It is
// the concrete shape of both an Organization reference and a
// customer-rooted Organization Unit reference.
type CustomerResourceID struct {
	Cid ID `bson:"cid" json:"cid"`
	ID  ID `bson:"_id" json:"id"`
}

// OrganizationID is a customer-scoped resource reference naming an
// organization.
type OrganizationID = CustomerResourceID

// ParseCustomerResourceID decodes a 48-character customer-scoped
// resource identifier.
func ParseCustomerResourceID(s string) (CustomerResourceID, error) {
	if len(s) != 48 {
		return CustomerResourceID{}, &InvalidLengthError{Type: "CustomerResourceID", Valid: []int{48}, Got: len(s)}
	}
	cid, err := requireSegment("CustomerResourceID", "cid", s, 0)
	if err != nil {
		return CustomerResourceID{}, err
	}
	id, err := requireSegment("CustomerResourceID", "id", s, 24)
	if err != nil {
		return CustomerResourceID{}, err
	}
	return CustomerResourceID{Cid: cid, ID: id}, nil
}

func (c CustomerResourceID) String() string {
	return c.Cid.Hex() + c.ID.Hex()
}

// EntityID widens into the loose form.
func (c CustomerResourceID) EntityID() EntityID {
	return EntityID{Cid: ref(c.Cid), ID: ref(c.ID)}
}

// Customer projects onto the owning customer.
func (c CustomerResourceID) Customer() CustomerID {
	return CustomerID{ID: c.Cid}
}

// Resource widens into an organization-scoped resource identifier for a
// known child id, treating this reference as the organization.
func (c CustomerResourceID) Resource(id ID) OrganizationResourceID {
	return OrganizationResourceID{Cid: c.Cid, Oid: c.ID, ID: id}
}

// AccessChain returns the hex segments used for access-control naming.
func (c CustomerResourceID) AccessChain() []string {
	return []string{c.Cid.Hex(), c.ID.Hex()}
}

// Compare orders by ancestor, then self.
func (c CustomerResourceID) Compare(o CustomerResourceID) int {
	if v := compareID(c.Cid, o.Cid); v != 0 {
		return v
	}
	return compareID(c.ID, o.ID)
}

// OrganizationResourceID identifies a resource scoped to one
// organization: an Institution reference or an organization-rooted
// Organization Unit reference.
type OrganizationResourceID struct {
	Cid ID `bson:"cid" json:"cid"`
	Oid ID `bson:"oid" json:"oid"`
	ID  ID `bson:"_id" json:"id"`
}

// InstitutionID is an organization-scoped resource reference naming an
// institution.
type InstitutionID = OrganizationResourceID

// ParseOrganizationResourceID decodes a 72-character organization-scoped
// resource identifier.
func ParseOrganizationResourceID(s string) (OrganizationResourceID, error) {
	if len(s) != 72 {
		return OrganizationResourceID{}, &InvalidLengthError{Type: "OrganizationResourceID", Valid: []int{72}, Got: len(s)}
	}
	cid, err := requireSegment("OrganizationResourceID", "cid", s, 0)
	if err != nil {
		return OrganizationResourceID{}, err
	}
	oid, err := requireSegment("OrganizationResourceID", "oid", s, 24)
	if err != nil {
		return OrganizationResourceID{}, err
	}
	id, err := requireSegment("OrganizationResourceID", "id", s, 48)
	if err != nil {
		return OrganizationResourceID{}, err
	}
	return OrganizationResourceID{Cid: cid, Oid: oid, ID: id}, nil
}

func (o OrganizationResourceID) String() string {
	return o.Cid.Hex() + o.Oid.Hex() + o.ID.Hex()
}

// EntityID widens into the loose form.
func (o OrganizationResourceID) EntityID() EntityID {
	return EntityID{Cid: ref(o.Cid), Oid: ref(o.Oid), ID: ref(o.ID)}
}

// Organization projects onto the owning organization.
func (o OrganizationResourceID) Organization() OrganizationID {
	return OrganizationID{Cid: o.Cid, ID: o.Oid}
}

// Resource widens into a fully-qualified leaf-resource identifier for a
// known child id, treating this reference as the institution.
func (o OrganizationResourceID) Resource(id ID) InstitutionResourceID {
	return InstitutionResourceID{Cid: o.Cid, Oid: o.Oid, Iid: o.ID, ID: id}
}

// AccessChain returns the hex segments used for access-control naming.
func (o OrganizationResourceID) AccessChain() []string {
	return []string{o.Cid.Hex(), o.Oid.Hex(), o.ID.Hex()}
}

// Compare orders by ancestors, then self.
func (o OrganizationResourceID) Compare(v OrganizationResourceID) int {
	if c := compareID(o.Cid, v.Cid); c != 0 {
		return c
	}
	if c := compareID(o.Oid, v.Oid); c != 0 {
		return c
	}
	return compareID(o.ID, v.ID)
}

// InstitutionResourceID is the fully-qualified leaf-resource identifier.
type InstitutionResourceID struct {
	Cid ID `bson:"cid" json:"cid"`
	Oid ID `bson:"oid" json:"oid"`
	Iid ID `bson:"iid" json:"iid"`
	ID  ID `bson:"_id" json:"id"`
}

// ParseInstitutionResourceID decodes a 96-character fully-qualified
// resource identifier.
func ParseInstitutionResourceID(s string) (InstitutionResourceID, error) {
	if len(s) != 96 {
		return InstitutionResourceID{}, &InvalidLengthError{Type: "InstitutionResourceID", Valid: []int{96}, Got: len(s)}
	}
	cid, err := requireSegment("InstitutionResourceID", "cid", s, 0)
	if err != nil {
		return InstitutionResourceID{}, err
	}
	oid, err := requireSegment("InstitutionResourceID", "oid", s, 24)
	if err != nil {
		return InstitutionResourceID{}, err
	}
	iid, err := requireSegment("InstitutionResourceID", "iid", s, 48)
	if err != nil {
		return InstitutionResourceID{}, err
	}
	id, err := requireSegment("InstitutionResourceID", "id", s, 72)
	if err != nil {
		return InstitutionResourceID{}, err
	}
	return InstitutionResourceID{Cid: cid, Oid: oid, Iid: iid, ID: id}, nil
}

func (i InstitutionResourceID) String() string {
	return i.Cid.Hex() + i.Oid.Hex() + i.Iid.Hex() + i.ID.Hex()
}

// EntityID widens into the loose form.
func (i InstitutionResourceID) EntityID() EntityID {
	return EntityID{Cid: ref(i.Cid), Oid: ref(i.Oid), Iid: ref(i.Iid), ID: ref(i.ID)}
}

// Institution projects onto the owning institution.
func (i InstitutionResourceID) Institution() InstitutionID {
	return InstitutionID{Cid: i.Cid, Oid: i.Oid, ID: i.Iid}
}

// AccessChain returns the hex segments used for access-control naming.
func (i InstitutionResourceID) AccessChain() []string {
	return []string{i.Cid.Hex(), i.Oid.Hex(), i.Iid.Hex(), i.ID.Hex()}
}

// Compare orders by ancestors, then self.
func (i InstitutionResourceID) Compare(v InstitutionResourceID) int {
	if c := compareID(i.Cid, v.Cid); c != 0 {
		return c
	}
	if c := compareID(i.Oid, v.Oid); c != 0 {
		return c
	}
	if c := compareID(i.Iid, v.Iid); c != 0 {
		return c
	}
	return compareID(i.ID, v.ID)
}

// OrganizationUnitID references an Organization Unit, whose parent may
// be either a Customer (Oid nil) or an Organization (Oid set).
type OrganizationUnitID struct {
	Cid ID  `bson:"cid" json:"cid"`
	Oid *ID `bson:"oid,omitempty" json:"oid,omitempty"`
	ID  ID  `bson:"_id" json:"id"`
}

// ParseOrganizationUnitID decodes a 48-character (customer-rooted) or
// 72-character (organization-rooted) organization-unit identifier.
func ParseOrganizationUnitID(s string) (OrganizationUnitID, error) {
	switch len(s) {
	case 48:
		cid, err := requireSegment("OrganizationUnitID", "cid", s, 0)
		if err != nil {
			return OrganizationUnitID{}, err
		}
		id, err := requireSegment("OrganizationUnitID", "id", s, 24)
		if err != nil {
			return OrganizationUnitID{}, err
		}
		return OrganizationUnitID{Cid: cid, ID: id}, nil
	case 72:
		cid, err := requireSegment("OrganizationUnitID", "cid", s, 0)
		if err != nil {
			return OrganizationUnitID{}, err
		}
		oid, err := requireSegment("OrganizationUnitID", "oid", s, 24)
		if err != nil {
			return OrganizationUnitID{}, err
		}
		id, err := requireSegment("OrganizationUnitID", "id", s, 48)
		if err != nil {
			return OrganizationUnitID{}, err
		}
		return OrganizationUnitID{Cid: cid, Oid: ref(oid), ID: id}, nil
	default:
		return OrganizationUnitID{}, &InvalidLengthError{Type: "OrganizationUnitID", Valid: []int{48, 72}, Got: len(s)}
	}
}

// OrganizationRooted reports whether the unit's parent is an
// organization rather than a customer.
func (u OrganizationUnitID) OrganizationRooted() bool {
	return u.Oid != nil
}

// String renders 48 or 72 characters depending on the variant. The
// sentinel is never emitted: the variant is encoded by length.
func (u OrganizationUnitID) String() string {
	var b strings.Builder
	b.WriteString(u.Cid.Hex())
	if u.Oid != nil {
		b.WriteString(u.Oid.Hex())
	}
	b.WriteString(u.ID.Hex())
	return b.String()
}

// EntityID widens into the loose form.
func (u OrganizationUnitID) EntityID() EntityID {
	return EntityID{Cid: ref(u.Cid), Oid: clone(u.Oid), ID: ref(u.ID)}
}

// Customer projects onto the owning customer.
func (u OrganizationUnitID) Customer() CustomerID {
	return CustomerID{ID: u.Cid}
}

// Organization projects onto the owning organization, present only for
// the organization-rooted variant.
func (u OrganizationUnitID) Organization() (OrganizationID, bool) {
	if u.Oid == nil {
		return OrganizationID{}, false
	}
	return OrganizationID{Cid: u.Cid, ID: *u.Oid}, true
}

// AccessChain returns the hex segments used for access-control naming.
func (u OrganizationUnitID) AccessChain() []string {
	if u.Oid != nil {
		return []string{u.Cid.Hex(), u.Oid.Hex(), u.ID.Hex()}
	}
	return []string{u.Cid.Hex(), u.ID.Hex()}
}

// Compare orders customer-rooted units before organization-rooted ones
// under the same customer.
func (u OrganizationUnitID) Compare(v OrganizationUnitID) int {
	if c := compareID(u.Cid, v.Cid); c != 0 {
		return c
	}
	if c := compareSegment(u.Oid, v.Oid); c != 0 {
		return c
	}
	return compareID(u.ID, v.ID)
}
