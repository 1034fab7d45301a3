// Package store defines the persistence contracts for the catalog and for
// credentials. Orchestrators depend only on these interfaces; the PostgreSQL
// implementations live in internal/platform/postgres.
//
// Read operations return (nil, nil) when the requested row does not exist.
// Mutations that target a specific row return an entity-specific
// ErrNotFound variant instead.
package store
