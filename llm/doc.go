// Package llm defines the shared types for talking to chat-completion
// providers: the Provider interface, request/response structures, the
// structured error type, and a registry for holding configured providers.
//
// Concrete adapters live under llm/providers; selecting and constructing
// one from a model name is the job of llm/factory.
package llm
