// Package ingestion turns a property catalog file into vector index entries.
// It loads and validates the catalog, embeds each property's canonical text
// on a worker pool and upserts the resulting vectors, making index rebuilds
// idempotent over an unchanged catalog.
package ingestion
