package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Role is a Keycloak realm role.
type Role struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RoleManager is the slice of the Keycloak admin API the service uses.
type RoleManager interface {
	CreateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, name string) error
	ListRoles(ctx context.Context) ([]Role, error)
}

// Config holds Keycloak connection settings.
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// DefaultConfig returns settings for a local Keycloak instance.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:8080",
		Realm:    "tenancy",
		ClientID: "tenancy-service",
		Timeout:  10 * time.Second,
	}
}

// Client talks to the Keycloak admin REST API.
type Client struct {
	baseURL    string
	realm      string
	httpClient *http.Client
}

// NewClient returns a client that authenticates with the client
// credentials flow and refreshes its token automatically.
func NewClient(config Config) *Client {
	creds := clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", config.BaseURL, config.Realm),
	}
	httpClient := creds.Client(context.Background())
	httpClient.Timeout = config.Timeout
	return &Client{
		baseURL:    config.BaseURL,
		realm:      config.Realm,
		httpClient: httpClient,
	}
}

// NewClientWithHTTP returns a client using the given HTTP client
// directly, skipping token negotiation. Used by tests.
func NewClientWithHTTP(baseURL, realm string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, realm: realm, httpClient: httpClient}
}

// CreateRole creates a realm role. An already-existing role is not an
// error, so granting access can be retried.
func (c *Client) CreateRole(ctx context.Context, role Role) error {
	payload, err := json.Marshal(role)
	if err != nil {
		return fmt.Errorf("encoding role failed: %w", err)
	}
	u := fmt.Sprintf("%s/admin/realms/%s/roles", c.baseURL, c.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creating role %s failed: %w", role.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("creating role %s returned status %d", role.Name, resp.StatusCode)
	}
	return nil
}

// DeleteRole removes a realm role by name. A missing role is not an
// error, so revocation can be retried.
func (c *Client) DeleteRole(ctx context.Context, name string) error {
	u := fmt.Sprintf("%s/admin/realms/%s/roles/%s", c.baseURL, c.realm, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting role %s failed: %w", name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deleting role %s returned status %d", name, resp.StatusCode)
	}
	return nil
}

// ListRoles returns every realm role.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	u := fmt.Sprintf("%s/admin/realms/%s/roles", c.baseURL, c.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing roles failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing roles returned status %d", resp.StatusCode)
	}

	var roles []Role
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		return nil, fmt.Errorf("decoding role list failed: %w", err)
	}
	return roles, nil
}

// MemoryRoleManager keeps roles in memory. Used by tests.
type MemoryRoleManager struct {
	mu    sync.Mutex
	roles map[string]Role
}

// NewMemoryRoleManager returns an empty in-memory role manager.
func NewMemoryRoleManager() *MemoryRoleManager {
	return &MemoryRoleManager{roles: make(map[string]Role)}
}

// CreateRole stores the role, overwriting any previous definition.
func (m *MemoryRoleManager) CreateRole(ctx context.Context, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.Name] = role
	return nil
}

// DeleteRole removes the role if present.
func (m *MemoryRoleManager) DeleteRole(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, name)
	return nil
}

// ListRoles returns the stored roles sorted by name.
func (m *MemoryRoleManager) ListRoles(ctx context.Context) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
