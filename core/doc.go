// Package core defines the property record model shared across the system.
//
// A Property is created once from a catalog entry via ParseProperty and is
// immutable afterwards. EmbeddingText produces the deterministic text
// serialization consumed by the embedding backends.
package core
