// Package cleanup is the cascading deletion workflow engine.
//
// Deleting a node of the tenant hierarchy leaves descendants behind:
// documents in every collection whose identifier chain passes through
// the node, organization unit membership entries pointing at removed
// institutions, access roles naming the removed chain, and cached
// copies on other service instances. A task names the deleted nodes of
// one level; the engine processes it through a fixed sequence of
// steps: collect the role
// set, repair unit memberships, sweep every collection, revoke roles,
// reload caches, publish deletion events. Each step is idempotent and
// any failure aborts the run without acknowledgement, so the queue
// redelivers and the run repeats from the top.
package cleanup
