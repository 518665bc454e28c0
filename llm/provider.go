package llm

import (
	"context"
	"time"
)

// ErrorCode classifies provider failures so callers can decide whether a
// request is worth retrying without parsing vendor-specific messages.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "LLM_INVALID_REQUEST"  // malformed parameters or body
	ErrUnauthorized    ErrorCode = "LLM_UNAUTHORIZED"     // missing or revoked API key
	ErrForbidden       ErrorCode = "LLM_FORBIDDEN"        // permission or content policy refusal
	ErrRateLimited     ErrorCode = "LLM_RATE_LIMITED"     // upstream throttling
	ErrQuotaExceeded   ErrorCode = "LLM_QUOTA_EXCEEDED"   // credits or quota exhausted
	ErrModelOverloaded ErrorCode = "LLM_MODEL_OVERLOADED" // model at capacity
	ErrUpstreamTimeout ErrorCode = "LLM_UPSTREAM_TIMEOUT" // upstream deadline exceeded
	ErrUpstreamError   ErrorCode = "LLM_UPSTREAM_ERROR"   // upstream 5xx or network failure
)

// Error is the structured error returned by provider adapters.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

// ChatRequest is the provider-neutral completion request.
//
// Temperature is a pointer because some models reject the parameter
// outright; nil means "do not send it", which is distinct from 0.
type ChatRequest struct {
	TraceID     string        `json:"trace_id,omitempty"`
	Model       string        `json:"model"`
	Messages    []Message     `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// StreamChunk is one incremental delta of a streaming completion.
// The final chunk may carry usage; a failed stream delivers Err and closes.
type StreamChunk struct {
	ID           string     `json:"id,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Model        string     `json:"model,omitempty"`
	Index        int        `json:"index,omitempty"`
	Delta        Message    `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *ChatUsage `json:"usage,omitempty"`
	Err          *Error     `json:"error,omitempty"`
}

// Model describes one entry of a provider's model listing.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// HealthStatus reports the outcome of a provider liveness probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the uniform adapter interface over one LLM vendor or runtime.
type Provider interface {
	// Completion performs a synchronous chat request and returns the full response.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream performs a streaming chat request. The returned channel is
	// closed when the stream ends; errors arrive as chunks with Err set.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// HealthCheck probes the provider endpoint and reports latency.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's unique identifier.
	Name() string
}

// Temp returns a pointer to v, for filling ChatRequest.Temperature inline.
func Temp(v float32) *float32 { return &v }
