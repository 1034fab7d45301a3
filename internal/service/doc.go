// Package service contains the application use cases. AuthService drives the
// session lifecycle (register, login, refresh, logout) and CatalogService keeps
// books and authors consistent across creates, updates, cascading deletes and
// bulk imports.
//
// Services receive their stores and collaborators through constructor
// injection and run multi-store work inside a single transaction via
// store.RunInTransaction, rebinding each store with WithTx.
package service
