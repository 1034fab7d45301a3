// Package domain defines the core catalog entities (authors, books, genres),
// the identity entities (users, refresh tokens), and the validation rules
// that every value must satisfy before it is persisted.
package domain
