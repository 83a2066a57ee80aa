// Package memory provides a brute-force in-memory vector index with optional
// snapshot persistence. It suits catalogs of up to a few tens of thousands of
// properties, where a full scan per query is cheaper than maintaining an
// approximate structure.
package memory
