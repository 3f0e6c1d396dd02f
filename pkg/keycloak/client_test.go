package keycloak

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRealm is a minimal in-process stand-in for the Keycloak admin
// role endpoints.
type fakeRealm struct {
	roles map[string]Role
}

func newFakeRealm(t *testing.T) (*fakeRealm, *Client) {
	t.Helper()
	realm := &fakeRealm{roles: make(map[string]Role)}

	r := mux.NewRouter()
	r.HandleFunc("/admin/realms/{realm}/roles", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			var role Role
			if err := json.NewDecoder(req.Body).Decode(&role); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if _, exists := realm.roles[role.Name]; exists {
				w.WriteHeader(http.StatusConflict)
				return
			}
			realm.roles[role.Name] = role
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			out := make([]Role, 0, len(realm.roles))
			for _, role := range realm.roles {
				out = append(out, role)
			}
			json.NewEncoder(w).Encode(out)
		}
	}).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/admin/realms/{realm}/roles/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := mux.Vars(req)["name"]
		if _, exists := realm.roles[name]; !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(realm.roles, name)
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return realm, NewClientWithHTTP(server.URL, "tenancy", server.Client())
}

func TestClientCreateRole(t *testing.T) {
	realm, client := newFakeRealm(t)
	ctx := context.Background()

	err := client.CreateRole(ctx, Role{Name: "customer:aaaa", Description: "customer access"})
	require.NoError(t, err)
	assert.Contains(t, realm.roles, "customer:aaaa")

	// creating the same role again is not an error
	require.NoError(t, client.CreateRole(ctx, Role{Name: "customer:aaaa"}))
}

func TestClientDeleteRoleIdempotent(t *testing.T) {
	realm, client := newFakeRealm(t)
	ctx := context.Background()

	require.NoError(t, client.CreateRole(ctx, Role{Name: "organization:aaaa-bbbb"}))
	require.NoError(t, client.DeleteRole(ctx, "organization:aaaa-bbbb"))
	assert.NotContains(t, realm.roles, "organization:aaaa-bbbb")

	// a second delete finds nothing and still succeeds
	require.NoError(t, client.DeleteRole(ctx, "organization:aaaa-bbbb"))
}

func TestClientListRoles(t *testing.T) {
	_, client := newFakeRealm(t)
	ctx := context.Background()

	require.NoError(t, client.CreateRole(ctx, Role{Name: "customer:aaaa"}))
	require.NoError(t, client.CreateRole(ctx, Role{Name: "institution:aaaa-bbbb-cccc"}))

	roles, err := client.ListRoles(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.ElementsMatch(t, []string{"customer:aaaa", "institution:aaaa-bbbb-cccc"}, names)
}

func TestMemoryRoleManager(t *testing.T) {
	manager := NewMemoryRoleManager()
	ctx := context.Background()

	require.NoError(t, manager.CreateRole(ctx, Role{Name: "b"}))
	require.NoError(t, manager.CreateRole(ctx, Role{Name: "a"}))
	require.NoError(t, manager.DeleteRole(ctx, "missing"))

	roles, err := manager.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "a", roles[0].Name)
	assert.Equal(t, "b", roles[1].Name)
}
