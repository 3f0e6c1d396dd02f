// Package keycloak manages realm roles through the Keycloak admin REST
// API.
//
// Tenancy access is granted through realm roles named after the entity
// chain they cover. When an entity is removed its roles must be removed
// too, otherwise a recreated entity with the same position in the
// hierarchy would inherit stale grants. The client authenticates with
// the OAuth2 client credentials flow and treats deleting an absent role
// as success, so cleanup retries stay idempotent.
package keycloak
