// Package storage persists the delivery log in a local SQLite database.
//
// The log is append-mostly: one row per payload sent (or failed), pruned by
// age. It exists so operators can answer "did Tuesday's blast reach
// everyone" after the in-memory reports have been evicted.
package storage
