// Package openai provides ai.Embedder and ai.Generator implementations for
// OpenAI and OpenAI-compatible services (Ollama's /v1 endpoint, LocalAI,
// vLLM, and the hosted OpenAI API).
package openai
