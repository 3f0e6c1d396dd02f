// Package storage provides the document-store boundary for the tenancy
// service.
//
// Store is the interface the cleanup workflow, the caches and the API
// layer consume. MongoStore implements it against a MongoDB deployment
// with session-scoped causal consistency; MemoryStore implements the
// same contract in memory for tests and local development, including the
// subset of query operators the cleanup predicates use ($in, $pull,
// dotted array paths).
package storage
