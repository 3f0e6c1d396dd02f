// Package tenant defines the documents stored for each hierarchy level
// (Customer, Organization, Institution and Organization Unit) together
// with the User document and its Owner reference.
//
// An Owner records which hierarchy level a user is anchored at plus the
// full ancestor chain, and offers total projections onto any ancestor
// level: a projection returns false instead of fabricating missing
// fields.
package tenant
