// Package badger provides a BadgerDB-backed vector index. Every upsert is
// durable on commit, so the index survives restarts without a separate
// snapshot file. Search is a full scan over stored entries, same as the
// in-memory backend.
package badger
