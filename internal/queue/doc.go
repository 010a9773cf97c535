// Package queue persists media jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, stuck-job recovery, and the status transitions the workflow
// manager steps through. Jobs capture the probe snapshot, target settings,
// resolved parameters, and outcome so stages can coordinate without any
// additional state.
//
// The database is transient storage for in-flight work rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
