// Package vectorindex defines the vector index abstraction used by the
// assistant for similarity search over property embeddings, plus the shared
// scoring and encoding helpers its backends build on. Concrete backends live
// in the memory and badger subpackages.
package vectorindex
