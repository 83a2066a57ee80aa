// Package ai defines the embedding and language-model contracts and their
// error taxonomy.
//
// Backends live in subpackages (openai, anthropic, ollama) and are selected
// once at startup; callers depend only on the Embedder and Generator
// interfaces. Transient backend failures surface as ErrGenerationUnavailable
// and are retried with RetryWithBackoff; resource exhaustion surfaces as
// ErrContextOverflow so callers can shrink the prompt instead of abandoning
// the request.
package ai
