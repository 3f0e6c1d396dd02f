package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/ids"
)

func TestAccessString(t *testing.T) {
	cid := "aaaaaaaaaaaaaaaaaaaaaaaa"
	oid := "bbbbbbbbbbbbbbbbbbbbbbbb"

	c, err := ids.ParseCustomerID(cid)
	require.NoError(t, err)
	assert.Equal(t, "customer:"+cid, NewAccess(LevelCustomer, c).String())

	org, err := ids.ParseCustomerResourceID(cid + oid)
	require.NoError(t, err)
	assert.Equal(t, "organization:"+cid+"-"+oid, NewAccess(LevelOrganization, org).String())
}

func TestAccessRoundTrip(t *testing.T) {
	cid := "aaaaaaaaaaaaaaaaaaaaaaaa"
	oid := "bbbbbbbbbbbbbbbbbbbbbbbb"
	iid := "cccccccccccccccccccccccc"

	inst, err := ids.ParseOrganizationResourceID(cid + oid + iid)
	require.NoError(t, err)
	a := NewAccess(LevelInstitution, inst)

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParseRejectsForeignRoles(t *testing.T) {
	for _, name := range []string{"", "offline_access", "admin:", "galaxy:aaaa"} {
		_, err := Parse(name)
		assert.Error(t, err, "role %q", name)
	}
}
