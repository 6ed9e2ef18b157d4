// Package dbal defines the core types and helpers shared across the DBAL
// codebase: database configuration, field descriptor tables, the distributed
// lock manager, retry orchestration, and shared error codes. Concrete backends
// live in subpackages such as mysql, postgres, and redis, while higher-level
// features (the filtered store, the entity schemas, the model provider
// registry) build on top of them.
// It is designed to be extensible and modular, allowing additional database
// backends to be implemented while sharing a common interface.
// It is a foundational package that other components build upon.
//
// See the `database` package for the facade that opens a backend and wires the
// lock manager appropriate for the deployment mode.
package dbal

// Locking model
//
// Cross-process coordination uses named locks served by the active database
// backend: MySQL named locks (GET_LOCK/RELEASE_LOCK) or PostgreSQL advisory
// locks (pg_try_advisory_lock/pg_advisory_unlock), with an optional Redis
// backend for deployments that coordinate outside the database. Lock waits are
// bounded by two timers:
//  1. The caller-provided context deadline/cancellation which propagates
//     across subsystems.
//  2. The per-lock timeout handed to Acquire, interpreted by each backend in
//     its own terms (a server-side wait for MySQL, a client-side polling
//     budget for Redis; PostgreSQL advisory try-locks return immediately and
//     rely on the retry policy to supply the waiting).
//
// In Standalone mode there is exactly one process, so the lock manager is
// wired with a no-op backend and every Acquire succeeds immediately.
