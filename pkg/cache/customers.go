package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// CustomerCacheName identifies the hierarchy cache on the reload bus.
const CustomerCacheName = "customers"

// CustomerCache mirrors the hierarchy collections in memory, keyed by
// each node's own identifier.
type CustomerCache struct {
	store storage.Store

	mu            sync.RWMutex
	customers     map[ids.ID]tenant.Customer
	organizations map[ids.ID]tenant.Organization
	institutions  map[ids.ID]tenant.Institution
	units         map[ids.ID]tenant.OrganizationUnit
	orgsByCust    map[ids.ID][]ids.ID
}

// NewCustomerCache returns an empty cache backed by store. Call Reload
// to hydrate it.
func NewCustomerCache(store storage.Store) *CustomerCache {
	return &CustomerCache{
		store:         store,
		customers:     make(map[ids.ID]tenant.Customer),
		organizations: make(map[ids.ID]tenant.Organization),
		institutions:  make(map[ids.ID]tenant.Institution),
		units:         make(map[ids.ID]tenant.OrganizationUnit),
		orgsByCust:    make(map[ids.ID][]ids.ID),
	}
}

// Name implements the reload bus contract.
func (c *CustomerCache) Name() string { return CustomerCacheName }

// Reload rebuilds the cache from all four hierarchy collections.
// Documents with an absent own id are skipped rather than failing the
// reload.
func (c *CustomerCache) Reload(ctx context.Context) error {
	var customers []tenant.Customer
	if err := c.store.Find(ctx, tenant.CustomersCollection, storage.Filter{}, &customers); err != nil {
		return fmt.Errorf("loading customers failed: %w", err)
	}
	var organizations []tenant.Organization
	if err := c.store.Find(ctx, tenant.OrganizationsCollection, storage.Filter{}, &organizations); err != nil {
		return fmt.Errorf("loading organizations failed: %w", err)
	}
	var institutions []tenant.Institution
	if err := c.store.Find(ctx, tenant.InstitutionsCollection, storage.Filter{}, &institutions); err != nil {
		return fmt.Errorf("loading institutions failed: %w", err)
	}
	var units []tenant.OrganizationUnit
	if err := c.store.Find(ctx, tenant.OrganizationUnitsCollection, storage.Filter{}, &units); err != nil {
		return fmt.Errorf("loading organization units failed: %w", err)
	}

	customerIndex := make(map[ids.ID]tenant.Customer, len(customers))
	for _, customer := range customers {
		if customer.ID.ID != nil {
			customerIndex[*customer.ID.ID] = customer
		}
	}
	organizationIndex := make(map[ids.ID]tenant.Organization, len(organizations))
	orgsByCust := make(map[ids.ID][]ids.ID)
	for _, organization := range organizations {
		if organization.ID.ID == nil {
			continue
		}
		organizationIndex[*organization.ID.ID] = organization
		if organization.ID.Cid != nil {
			orgsByCust[*organization.ID.Cid] = append(orgsByCust[*organization.ID.Cid], *organization.ID.ID)
		}
	}
	institutionIndex := make(map[ids.ID]tenant.Institution, len(institutions))
	for _, institution := range institutions {
		if institution.ID.ID != nil {
			institutionIndex[*institution.ID.ID] = institution
		}
	}
	unitIndex := make(map[ids.ID]tenant.OrganizationUnit, len(units))
	for _, unit := range units {
		if unit.ID.ID != nil {
			unitIndex[*unit.ID.ID] = unit
		}
	}

	c.mu.Lock()
	c.customers = customerIndex
	c.organizations = organizationIndex
	c.institutions = institutionIndex
	c.units = unitIndex
	c.orgsByCust = orgsByCust
	c.mu.Unlock()
	return nil
}

// Customers lists every cached customer.
func (c *CustomerCache) Customers() []tenant.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]tenant.Customer, 0, len(c.customers))
	for _, customer := range c.customers {
		out = append(out, customer)
	}
	return out
}

// Customer looks up a customer by its own id.
func (c *CustomerCache) Customer(id ids.ID) (tenant.Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	customer, ok := c.customers[id]
	return customer, ok
}

// Organization looks up an organization by its own id.
func (c *CustomerCache) Organization(id ids.ID) (tenant.Organization, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	organization, ok := c.organizations[id]
	return organization, ok
}

// Institution looks up an institution by its own id.
func (c *CustomerCache) Institution(id ids.ID) (tenant.Institution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	institution, ok := c.institutions[id]
	return institution, ok
}

// OrganizationUnit looks up a unit by its own id.
func (c *CustomerCache) OrganizationUnit(id ids.ID) (tenant.OrganizationUnit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	unit, ok := c.units[id]
	return unit, ok
}

// OrganizationsOf lists the organizations under a customer.
func (c *CustomerCache) OrganizationsOf(cid ids.ID) []tenant.Organization {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]tenant.Organization, 0, len(c.orgsByCust[cid]))
	for _, id := range c.orgsByCust[cid] {
		out = append(out, c.organizations[id])
	}
	return out
}
