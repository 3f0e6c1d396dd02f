package tenant

import (
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/ids"
)

// Collection names for the hierarchy documents.
const (
	CustomersCollection         = "customers"
	OrganizationsCollection     = "organizations"
	InstitutionsCollection      = "institutions"
	OrganizationUnitsCollection = "organization_units"
	UsersCollection             = "users"
)

// Modification is an audit stamp on create/update.
type Modification struct {
	UserID uuid.UUID `bson:"userId" json:"userId"`
	At     time.Time `bson:"at" json:"at"`
}

// NewModification stamps the acting user at the current time.
func NewModification(userID uuid.UUID) Modification {
	return Modification{UserID: userID, At: time.Now().UTC()}
}

// Customer is the root of the tenant hierarchy.
type Customer struct {
	ID       ids.EntityID  `bson:"id" json:"id"`
	Name     string        `bson:"name" json:"name"`
	Created  Modification  `bson:"created" json:"created"`
	Modified *Modification `bson:"modified,omitempty" json:"modified,omitempty"`
}

// Organization is scoped to one customer.
type Organization struct {
	ID       ids.EntityID  `bson:"id" json:"id"`
	Name     string        `bson:"name" json:"name"`
	Created  Modification  `bson:"created" json:"created"`
	Modified *Modification `bson:"modified,omitempty" json:"modified,omitempty"`
}

// Institution is scoped to one organization.
type Institution struct {
	ID       ids.EntityID  `bson:"id" json:"id"`
	Name     string        `bson:"name" json:"name"`
	Created  Modification  `bson:"created" json:"created"`
	Modified *Modification `bson:"modified,omitempty" json:"modified,omitempty"`
}

// Member is one institution listed in an organization unit's membership
// set.
type Member struct {
	Cid ids.ID `bson:"cid" json:"cid"`
	Oid ids.ID `bson:"oid" json:"oid"`
	Iid ids.ID `bson:"iid" json:"iid"`
}

// MemberOf builds the membership entry for an institution.
func MemberOf(i ids.InstitutionID) Member {
	return Member{Cid: i.Cid, Oid: i.Oid, Iid: i.ID}
}

// OrganizationUnit groups institutions across the tree. Its parent is a
// customer or an organization, encoded in the id.
type OrganizationUnit struct {
	ID       ids.EntityID  `bson:"id" json:"id"`
	Name     string        `bson:"name" json:"name"`
	Members  []Member      `bson:"members" json:"members"`
	Created  Modification  `bson:"created" json:"created"`
	Modified *Modification `bson:"modified,omitempty" json:"modified,omitempty"`
}

// UserDetails carries the identity-provider view of a user.
type UserDetails struct {
	UserID    uuid.UUID `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Firstname string    `bson:"firstname" json:"firstname"`
	Lastname  string    `bson:"lastname" json:"lastname"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	JobTitle  string    `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	Enabled   bool      `bson:"enabled" json:"enabled"`
}

// User is a dependent record anchored somewhere in the hierarchy via its
// Owner reference. Access is the formatted access-control string the
// user's role set is derived from.
type User struct {
	Owner    Owner         `bson:"owner" json:"owner"`
	Access   string        `bson:"access" json:"access"`
	Groups   []string      `bson:"groups,omitempty" json:"groups,omitempty"`
	Details  UserDetails   `bson:",inline" json:"details"`
	Created  Modification  `bson:"created" json:"created"`
	Modified *Modification `bson:"modified,omitempty" json:"modified,omitempty"`
}
