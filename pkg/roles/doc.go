// Package roles builds and parses the access-control role names the
// identity provider stores for hierarchy nodes.
//
// A role name is "<level>:<hyphen-joined-id-chain>", e.g.
// "organization:aaaa...-bbbb...". The format is stable and re-derivable
// from a node identifier, which is what lets the cleanup workflow revoke
// roles for nodes that no longer exist.
package roles
