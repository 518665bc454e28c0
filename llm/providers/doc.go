// Package providers holds the configuration structs and wire-level
// plumbing shared by all provider adapters: per-provider config types,
// HTTP error mapping, and the OpenAI-compatible request/response types
// several vendors have converged on.
package providers
