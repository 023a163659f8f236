// Package stores provides the SQLite-backed persistence layer for
// pipeline runs: the run record, the per-task ledger, individual
// execution attempts, and the append-only event log.
package stores
