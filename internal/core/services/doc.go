// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The indexing pipeline lives here: IndexerService writes a document to
// both stores, QueryService reads context back, RepairService converges
// the vector index on the metadata store, and IngestService runs
// extraction plus indexing on a bounded WorkerPool.
//
// Services are pure Go with no CGO or external dependencies.
package services
