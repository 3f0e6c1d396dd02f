// Package ids implements the composite hierarchical identifier model for
// the tenant tree: Customer > Organization > Institution, plus the
// cross-cutting Organization Unit grouping.
//
// Every identifier is built from 12-byte ObjectIDs serialized as fixed
// 24-character hex segments. Composite identifiers concatenate their
// segments in ancestor-to-descendant order, so the canonical string form
// of a node is always one of 24, 48, 72 or 96 characters. The all-zero
// segment is a sentinel meaning "absent" where a type allows optional
// fields.
//
// Strict identifier variants carry every ancestor field as a mandatory
// value and are the only types accepted at the cleanup-task boundary.
package ids
