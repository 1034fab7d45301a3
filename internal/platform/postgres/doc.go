// Package postgres provides PostgreSQL implementations of the store
// interfaces, the embedded schema migrations, and the mapping from
// PostgreSQL error codes onto the store error taxonomy.
//
// Stores are constructed over a store.DBTX so the same type serves both
// pooled connections and transactions; WithTx rebinds a store to a *sql.Tx.
package postgres
