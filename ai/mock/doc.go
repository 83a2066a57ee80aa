// Package mock provides deterministic test doubles for the ai interfaces.
//
// MockEmbedder produces token-hash embeddings, so texts sharing vocabulary
// score higher cosine similarity than unrelated texts; MockGenerator records
// prompts and returns canned answers. Both support behavior injection via
// function fields.
package mock
