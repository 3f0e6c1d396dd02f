package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/ids"
)

func mustID(t *testing.T, s string) ids.ID {
	t.Helper()
	c, err := ids.ParseCustomerID(s)
	require.NoError(t, err)
	return c.ID
}

const (
	cidHex = "aaaaaaaaaaaaaaaaaaaaaaaa"
	oidHex = "bbbbbbbbbbbbbbbbbbbbbbbb"
	iidHex = "cccccccccccccccccccccccc"
)

func TestOwnerProjections(t *testing.T) {
	cid := mustID(t, cidHex)
	oid := mustID(t, oidHex)
	iid := mustID(t, iidHex)

	owner := NewInstitutionOwner(ids.InstitutionID{Cid: cid, Oid: oid, ID: iid})

	c, ok := owner.Customer()
	require.True(t, ok)
	assert.Equal(t, cidHex, c.String())

	o, ok := owner.Organization()
	require.True(t, ok)
	assert.Equal(t, cidHex+oidHex, o.String())

	i, ok := owner.Institution()
	require.True(t, ok)
	assert.Equal(t, cidHex+oidHex+iidHex, i.String())

	_, ok = owner.OrganizationUnit()
	assert.False(t, ok)
}

func TestOwnerCustomerLevelHasNoOrganization(t *testing.T) {
	owner := NewCustomerOwner(ids.CustomerID{ID: mustID(t, cidHex)})

	c, ok := owner.Customer()
	require.True(t, ok)
	assert.Equal(t, cidHex, c.String())

	_, ok = owner.Organization()
	assert.False(t, ok)
	_, ok = owner.Institution()
	assert.False(t, ok)
	_, ok = owner.OrganizationUnit()
	assert.False(t, ok)
}

func TestOwnerProjectionNeverFabricates(t *testing.T) {
	// missing cid on a customer-anchored owner yields no projection at
	// all, never a zero-valued id
	owner := Owner{Level: OwnerCustomer, EntityID: ids.EntityID{}}
	_, ok := owner.Customer()
	assert.False(t, ok)

	// an organization-anchored owner without oid has no organization
	cid := mustID(t, cidHex)
	owner = Owner{Level: OwnerOrganization, EntityID: ids.EntityID{Cid: &cid}}
	_, ok = owner.Organization()
	assert.False(t, ok)
	_, ok = owner.Customer()
	assert.True(t, ok)
}

func TestOrganizationUnitOwnerVariants(t *testing.T) {
	cid := mustID(t, cidHex)
	oid := mustID(t, oidHex)
	uid := mustID(t, iidHex)

	customerRooted := NewOrganizationUnitOwner(ids.OrganizationUnitID{Cid: cid, ID: uid})
	u, ok := customerRooted.OrganizationUnit()
	require.True(t, ok)
	assert.False(t, u.OrganizationRooted())
	assert.Equal(t, cidHex+iidHex, u.String())
	_, ok = customerRooted.Organization()
	assert.False(t, ok)

	orgRooted := NewOrganizationUnitOwner(ids.OrganizationUnitID{Cid: cid, Oid: &oid, ID: uid})
	u, ok = orgRooted.OrganizationUnit()
	require.True(t, ok)
	assert.True(t, u.OrganizationRooted())
	assert.Equal(t, cidHex+oidHex+iidHex, u.String())
	o, ok := orgRooted.Organization()
	require.True(t, ok)
	assert.Equal(t, cidHex+oidHex, o.String())
}

func TestCustomerRootedUnitOwnerRoundTrips(t *testing.T) {
	// the persisted owner chain for a customer-rooted unit is cid+iid
	// with no oid; it must validate and survive the string encoding
	cid := mustID(t, cidHex)
	uid := mustID(t, iidHex)

	owner := NewOrganizationUnitOwner(ids.OrganizationUnitID{Cid: cid, ID: uid})
	require.NoError(t, owner.Validate())

	parsed, err := ids.ParseEntityID(owner.EntityID.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(owner.EntityID))
	assert.Nil(t, parsed.Oid)
}

func TestOwnerValidate(t *testing.T) {
	cid := mustID(t, cidHex)
	oid := mustID(t, oidHex)

	assert.NoError(t, NewCustomerOwner(ids.CustomerID{ID: cid}).Validate())

	bad := Owner{Level: "Galaxy"}
	assert.Error(t, bad.Validate())

	// broken ancestor chain propagates from EntityID validation
	broken := Owner{Level: OwnerOrganization, EntityID: ids.EntityID{Oid: &oid}}
	assert.Error(t, broken.Validate())
}
