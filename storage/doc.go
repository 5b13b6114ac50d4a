// Package storage provides courier.SecureStore implementations: an in memory
// store, a SQL store built on bun, a Redis store and an age encrypting
// wrapper that seals values before they reach another store.
//
// Every store reports absent keys with ok=false and a nil error. The memory,
// SQL and Redis stores also implement courier.BatchStore, so a session is
// written or removed all-or-nothing.
package storage
