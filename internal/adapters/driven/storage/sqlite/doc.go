// Package sqlite implements the metadata store on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Two tables hold the state: documents (one row per
// ingested source) and chunks (positioned text windows, deleted with their
// document through a foreign key cascade).
//
// # Data Location
//
// The database is stored at {data_dir}/metadata.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
