package cleanup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/cache"
	"github.com/platinummonkey/tenancy/pkg/events"
	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/keycloak"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/roles"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// Reloader broadcasts cache invalidations to every service instance.
// Implemented by cache.ReloadBus.
type Reloader interface {
	Reload(ctx context.Context, names ...string) error
}

// Config wires the engine's collaborators.
type Config struct {
	Store     storage.Store
	Roles     keycloak.RoleManager
	Users     *cache.UserCache
	Reloader  Reloader
	Events    events.Producer
	Namespace string
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

// Engine executes cleanup tasks.
type Engine struct {
	store     storage.Store
	roles     keycloak.RoleManager
	users     *cache.UserCache
	reloader  Reloader
	events    events.Producer
	namespace string
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewEngine builds an engine from its collaborators.
func NewEngine(config Config) *Engine {
	return &Engine{
		store:     config.Store,
		roles:     config.Roles,
		users:     config.Users,
		reloader:  config.Reloader,
		events:    config.Events,
		namespace: config.Namespace,
		logger:    config.Logger,
		metrics:   config.Metrics,
	}
}

// plan is the per-level shape of one cleanup run: the access entries of
// the deleted nodes, the descendant predicates, where their root
// documents live, and which descendant collections still carry roles to
// revoke.
type plan struct {
	accesses       []roles.Access
	rootCollection string
	rootFilter     storage.Filter
	hierFilter     storage.Filter
	userFilter     storage.Filter
	descendants    []descendantQuery
	memberPull     storage.Filter
}

// descendantQuery names a collection whose surviving documents under
// the deleted node contribute roles to the revocation set.
type descendantQuery struct {
	collection string
	level      roles.Level
}

// Process runs one cleanup task to completion. Any error leaves the
// task unacknowledged for redelivery; every step tolerates re-running.
func (e *Engine) Process(ctx context.Context, task queue.CleanupTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.Type == queue.TaskNone {
		return nil
	}

	p, err := e.planFor(task)
	if err != nil {
		return err
	}

	logger := e.logger.WithField("task_id", task.ID.String()).WithField("task_type", string(task.Type))

	var roleSet []string
	var pulled int64
	deleted := make(map[string][]string)

	err = e.store.WithSession(ctx, func(ctx context.Context) error {
		var err error
		roleSet, err = e.collectRoles(ctx, p)
		if err != nil {
			return err
		}
		pulled, err = e.repairMemberships(ctx, p)
		if err != nil {
			return err
		}
		deleted, err = e.sweep(ctx, p)
		return err
	})
	if err != nil {
		return fmt.Errorf("task %s: %w", task.ID, err)
	}

	if err := e.revokeRoles(ctx, roleSet); err != nil {
		return fmt.Errorf("task %s: %w", task.ID, err)
	}

	if err := e.reloader.Reload(ctx, cache.UserCacheName, cache.CustomerCacheName); err != nil {
		return fmt.Errorf("task %s: %w", task.ID, err)
	}
	e.metrics.CacheReloadsTotal.WithLabelValues(cache.UserCacheName).Inc()
	e.metrics.CacheReloadsTotal.WithLabelValues(cache.CustomerCacheName).Inc()

	if err := e.publishDeletions(ctx, deleted); err != nil {
		return fmt.Errorf("task %s: %w", task.ID, err)
	}

	var total int
	for _, ids := range deleted {
		total += len(ids)
	}
	logger.WithFields(map[string]interface{}{
		"documents_deleted":  total,
		"roles_revoked":      len(roleSet),
		"memberships_pulled": pulled,
	}).Info("cleanup run complete")
	return nil
}

// anyOf builds a $in membership predicate over an id set. Ids are
// globally unique, so per-field $in over a batch never matches a node
// outside it even when the batch spans several ancestor chains.
func anyOf(values []ids.ID) storage.Filter {
	return storage.Filter{"$in": values}
}

// planFor translates a task into the predicates of its level. Every
// predicate covers the whole payload set.
func (e *Engine) planFor(task queue.CleanupTask) (plan, error) {
	switch task.Type {
	case queue.TaskCustomers:
		cids := make([]ids.ID, 0, len(task.Customers))
		accesses := make([]roles.Access, 0, len(task.Customers))
		for _, target := range task.Customers {
			cids = append(cids, target.Cid.ID)
			accesses = append(accesses, roles.NewAccess(roles.LevelCustomer, target))
		}
		return plan{
			accesses:       accesses,
			rootCollection: tenant.CustomersCollection,
			rootFilter:     storage.Filter{"id._id": anyOf(cids)},
			hierFilter:     storage.Filter{"id.cid": anyOf(cids)},
			userFilter:     storage.Filter{"owner.entityId.cid": anyOf(cids)},
			memberPull:     storage.Filter{"cid": anyOf(cids)},
			descendants: []descendantQuery{
				{collection: tenant.OrganizationsCollection, level: roles.LevelOrganization},
				{collection: tenant.InstitutionsCollection, level: roles.LevelInstitution},
				{collection: tenant.OrganizationUnitsCollection, level: roles.LevelOrganizationUnit},
			},
		}, nil
	case queue.TaskOrganizations:
		cids := make([]ids.ID, 0, len(task.Organizations))
		oids := make([]ids.ID, 0, len(task.Organizations))
		accesses := make([]roles.Access, 0, len(task.Organizations))
		for _, target := range task.Organizations {
			cids = append(cids, target.Cid.ID)
			oids = append(oids, target.Oid.ID)
			accesses = append(accesses, roles.NewAccess(roles.LevelOrganization, target))
		}
		return plan{
			accesses:       accesses,
			rootCollection: tenant.OrganizationsCollection,
			rootFilter:     storage.Filter{"id.cid": anyOf(cids), "id._id": anyOf(oids)},
			hierFilter:     storage.Filter{"id.cid": anyOf(cids), "id.oid": anyOf(oids)},
			userFilter: storage.Filter{
				"owner.entityId.cid": anyOf(cids),
				"owner.entityId.oid": anyOf(oids),
			},
			memberPull: storage.Filter{"cid": anyOf(cids), "oid": anyOf(oids)},
			descendants: []descendantQuery{
				{collection: tenant.InstitutionsCollection, level: roles.LevelInstitution},
				{collection: tenant.OrganizationUnitsCollection, level: roles.LevelOrganizationUnit},
			},
		}, nil
	case queue.TaskInstitutions:
		cids := make([]ids.ID, 0, len(task.Institutions))
		oids := make([]ids.ID, 0, len(task.Institutions))
		iids := make([]ids.ID, 0, len(task.Institutions))
		accesses := make([]roles.Access, 0, len(task.Institutions))
		for _, target := range task.Institutions {
			cids = append(cids, target.Cid.ID)
			oids = append(oids, target.Oid.ID)
			iids = append(iids, target.Iid.ID)
			accesses = append(accesses, roles.NewAccess(roles.LevelInstitution, target))
		}
		return plan{
			accesses:       accesses,
			rootCollection: tenant.InstitutionsCollection,
			rootFilter: storage.Filter{
				"id.cid": anyOf(cids),
				"id.oid": anyOf(oids),
				"id._id": anyOf(iids),
			},
			hierFilter: storage.Filter{
				"id.cid": anyOf(cids),
				"id.oid": anyOf(oids),
				"id.iid": anyOf(iids),
			},
			userFilter: storage.Filter{
				"owner.entityId.cid": anyOf(cids),
				"owner.entityId.oid": anyOf(oids),
				"owner.entityId.iid": anyOf(iids),
			},
			memberPull: storage.Filter{"cid": anyOf(cids), "oid": anyOf(oids), "iid": anyOf(iids)},
		}, nil
	case queue.TaskOrganizationUnits:
		// a batch may mix customer- and organization-rooted units; the
		// unit id alone is unambiguous, so the predicates skip oid
		cids := make([]ids.ID, 0, len(task.OrganizationUnits))
		uids := make([]ids.ID, 0, len(task.OrganizationUnits))
		accesses := make([]roles.Access, 0, len(task.OrganizationUnits))
		for _, target := range task.OrganizationUnits {
			cids = append(cids, target.Cid.ID)
			uids = append(uids, target.Uid.ID)
			accesses = append(accesses, roles.NewAccess(roles.LevelOrganizationUnit, target))
		}
		return plan{
			accesses:       accesses,
			rootCollection: tenant.OrganizationUnitsCollection,
			rootFilter:     storage.Filter{"id.cid": anyOf(cids), "id._id": anyOf(uids)},
			hierFilter:     storage.Filter{"id.cid": anyOf(cids), "id.uid": anyOf(uids)},
			userFilter: storage.Filter{
				"owner.entityId.cid": anyOf(cids),
				"owner.entityId.iid": anyOf(uids),
			},
		}, nil
	default:
		return plan{}, fmt.Errorf("task %s: unknown type %q", task.ID, task.Type)
	}
}

// entityRef projects just the identifier chain of a hierarchy document.
type entityRef struct {
	ID ids.EntityID `bson:"id"`
}

// userRef projects just the identity of a user document.
type userRef struct {
	UserID uuid.UUID `bson:"_id"`
}

// collectRoles builds the sorted, deduplicated set of role names to
// revoke: each deleted node's own role plus one per descendant document
// still present under the set.
func (e *Engine) collectRoles(ctx context.Context, p plan) ([]string, error) {
	set := make(map[string]struct{}, len(p.accesses))
	for _, access := range p.accesses {
		set[access.String()] = struct{}{}
	}

	for _, d := range p.descendants {
		var refs []entityRef
		if err := e.store.Find(ctx, d.collection, p.hierFilter, &refs); err != nil {
			return nil, fmt.Errorf("scanning %s failed: %w", d.collection, err)
		}
		for _, ref := range refs {
			access, ok := descendantAccess(d.level, ref.ID)
			if !ok {
				continue
			}
			set[access.String()] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for role := range set {
		out = append(out, role)
	}
	sort.Strings(out)
	return out, nil
}

// descendantAccess projects a document's identifier chain onto the
// access entry of its level.
func descendantAccess(level roles.Level, e ids.EntityID) (roles.Access, bool) {
	switch level {
	case roles.LevelOrganization:
		id, ok := e.AsOrganizationID()
		if !ok {
			return roles.Access{}, false
		}
		return roles.NewAccess(level, id), true
	case roles.LevelInstitution:
		id, ok := e.AsInstitutionID()
		if !ok {
			return roles.Access{}, false
		}
		return roles.NewAccess(level, id), true
	case roles.LevelOrganizationUnit:
		id, ok := e.AsOrganizationUnitID()
		if !ok {
			return roles.Access{}, false
		}
		return roles.NewAccess(level, id), true
	default:
		return roles.Access{}, false
	}
}

// repairMemberships pulls members whose chain passes through the
// deleted node out of every surviving organization unit. Units under
// the node are swept anyway; this covers units elsewhere in the tree
// that listed one of its institutions. Pulling an absent member is a
// no-op.
func (e *Engine) repairMemberships(ctx context.Context, p plan) (int64, error) {
	if p.memberPull == nil {
		return 0, nil
	}
	match := storage.Filter{}
	for field, value := range p.memberPull {
		match["members."+field] = value
	}
	modified, err := e.store.UpdateMany(ctx,
		tenant.OrganizationUnitsCollection,
		match,
		storage.Update{"$pull": storage.Filter{"members": p.memberPull}},
	)
	if err != nil {
		return 0, fmt.Errorf("repairing unit memberships failed: %w", err)
	}
	e.metrics.MembershipsRepaired.Add(float64(modified))
	return modified, nil
}

// sweep removes the node's root document and every descendant document
// from every collection, returning the removed id strings per
// collection.
func (e *Engine) sweep(ctx context.Context, p plan) (map[string][]string, error) {
	collections, err := e.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections failed: %w", err)
	}
	sort.Strings(collections)

	deleted := make(map[string][]string)
	record := func(collection string, idStrings []string) {
		if len(idStrings) > 0 {
			deleted[collection] = append(deleted[collection], idStrings...)
		}
	}

	// the root document first, in case the deletion request was
	// persisted but the root removal never happened
	rootIDs, err := e.deleteEntities(ctx, p.rootCollection, p.rootFilter)
	if err != nil {
		return nil, err
	}
	record(p.rootCollection, rootIDs)

	for _, collection := range collections {
		if collection == tenant.UsersCollection {
			userIDs, err := e.deleteUsers(ctx, p.userFilter)
			if err != nil {
				return nil, err
			}
			record(collection, userIDs)
			continue
		}
		idStrings, err := e.deleteEntities(ctx, collection, p.hierFilter)
		if err != nil {
			return nil, err
		}
		record(collection, idStrings)
	}
	return deleted, nil
}

func (e *Engine) deleteEntities(ctx context.Context, collection string, filter storage.Filter) ([]string, error) {
	var refs []entityRef
	if err := e.store.Find(ctx, collection, filter, &refs); err != nil {
		return nil, fmt.Errorf("scanning %s failed: %w", collection, err)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	idStrings := make([]string, 0, len(refs))
	for _, ref := range refs {
		idStrings = append(idStrings, ref.ID.String())
	}
	n, err := e.store.DeleteMany(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("sweeping %s failed: %w", collection, err)
	}
	e.metrics.DocumentsDeleted.WithLabelValues(collection).Add(float64(n))
	return idStrings, nil
}

func (e *Engine) deleteUsers(ctx context.Context, filter storage.Filter) ([]string, error) {
	var refs []userRef
	if err := e.store.Find(ctx, tenant.UsersCollection, filter, &refs); err != nil {
		return nil, fmt.Errorf("scanning %s failed: %w", tenant.UsersCollection, err)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	idStrings := make([]string, 0, len(refs))
	for _, ref := range refs {
		idStrings = append(idStrings, ref.UserID.String())
	}
	n, err := e.store.DeleteMany(ctx, tenant.UsersCollection, filter)
	if err != nil {
		return nil, fmt.Errorf("sweeping %s failed: %w", tenant.UsersCollection, err)
	}
	e.metrics.DocumentsDeleted.WithLabelValues(tenant.UsersCollection).Add(float64(n))
	return idStrings, nil
}

// revokeRoles removes every role from the identity store and the user
// cache's role index. Both tolerate already-absent roles.
func (e *Engine) revokeRoles(ctx context.Context, roleSet []string) error {
	for _, role := range roleSet {
		if err := e.roles.DeleteRole(ctx, role); err != nil {
			return fmt.Errorf("revoking role %s failed: %w", role, err)
		}
		e.users.RemoveAccess(role)
		e.metrics.RolesRevokedTotal.Inc()
	}
	return nil
}

// publishDeletions emits one event per swept collection. Duplicate
// events on redelivered tasks are expected; consumers treat them as
// at-least-once.
func (e *Engine) publishDeletions(ctx context.Context, deleted map[string][]string) error {
	collections := make([]string, 0, len(deleted))
	for collection := range deleted {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	now := time.Now().UTC()
	for _, collection := range collections {
		event := events.DeletionEvent{
			Namespace:  e.namespace,
			Collection: collection,
			IDs:        deleted[collection],
			At:         now,
		}
		if err := e.events.PublishDeletion(ctx, event); err != nil {
			return fmt.Errorf("publishing deletion event for %s failed: %w", collection, err)
		}
		e.metrics.EventsPublishedTotal.WithLabelValues(e.namespace).Inc()
	}
	return nil
}
