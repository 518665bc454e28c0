// Package anthropic implements the Anthropic Messages API adapter.
//
// The Anthropic API differs from the OpenAI wire format in several ways:
// authentication uses the x-api-key header, the system prompt travels in
// its own field, max_tokens is mandatory, and the SSE stream is a typed
// event sequence rather than completion deltas.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evalflow/llmselect/llm"
	"github.com/evalflow/llmselect/llm/providers"
	"go.uber.org/zap"
)

const (
	defaultVersion   = "2023-06-01"
	defaultMaxTokens = 4096
	fallbackModel    = "claude-3-5-sonnet-20241022"
)

// AnthropicProvider implements the Anthropic Messages API adapter.
type AnthropicProvider struct {
	cfg    providers.AnthropicConfig
	client *http.Client
	logger *zap.Logger
}

// NewAnthropicProvider creates a new Anthropic adapter.
func NewAnthropicProvider(cfg providers.AnthropicConfig, logger *zap.Logger) *AnthropicProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second // long generations are common
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.AnthropicVersion == "" {
		cfg.AnthropicVersion = defaultVersion
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnthropicProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) buildHeaders(req *http.Request, apiKey string) {
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", p.cfg.AnthropicVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

type anthropicMessage struct {
	Role    string             `json:"role"` // user or assistant
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"` // text
	Text string `json:"text,omitempty"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	TopP        float32            `json:"top_p,omitempty"`
	StopSeq     []string           `json:"stop_sequences,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      *anthropicUsage    `json:"usage,omitempty"`
}

type anthropicStreamEvent struct {
	Type    string             `json:"type"`
	Index   int                `json:"index,omitempty"`
	Delta   *anthropicDelta    `json:"delta,omitempty"`
	Message *anthropicResponse `json:"message,omitempty"`
	Usage   *anthropicUsage    `json:"usage,omitempty"`
}

type anthropicDelta struct {
	Type       string `json:"type"` // text_delta
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// convertMessages splits out the system prompt and maps the rest to the
// Anthropic content-block shape.
func convertMessages(msgs []llm.Message) (string, []anthropicMessage) {
	var system string
	var out []anthropicMessage

	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = m.Content
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, anthropicMessage{
			Role:    string(m.Role),
			Content: []anthropicContent{{Type: "text", Text: m.Content}},
		})
	}

	return system, out
}

func (p *AnthropicProvider) buildBody(req *llm.ChatRequest, stream bool) anthropicRequest {
	system, messages := convertMessages(req.Messages)

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	if model == "" {
		model = fallbackModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens // the API rejects requests without max_tokens
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = p.cfg.Temperature
	}

	return anthropicRequest{
		Model:       model,
		Messages:    messages,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        req.TopP,
		StopSeq:     req.Stop,
		Stream:      stream,
	}
}

func (p *AnthropicProvider) post(ctx context.Context, body anthropicRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	return resp, nil
}

// Completion performs a synchronous messages request.
func (p *AnthropicProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.post(ctx, p.buildBody(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	return p.toChatResponse(aResp), nil
}

func (p *AnthropicProvider) toChatResponse(aResp anthropicResponse) *llm.ChatResponse {
	var text strings.Builder
	for _, c := range aResp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	out := &llm.ChatResponse{
		ID:       aResp.ID,
		Provider: p.Name(),
		Model:    aResp.Model,
		Choices: []llm.ChatChoice{{
			FinishReason: aResp.StopReason,
			Message: llm.Message{
				Role:    llm.RoleAssistant,
				Content: text.String(),
			},
		}},
	}
	if aResp.Usage != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     aResp.Usage.InputTokens,
			CompletionTokens: aResp.Usage.OutputTokens,
			TotalTokens:      aResp.Usage.InputTokens + aResp.Usage.OutputTokens,
		}
	}
	return out
}

// Stream performs a streaming messages request over SSE.
func (p *AnthropicProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	resp, err := p.post(ctx, p.buildBody(req, true))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)

		var currentID, currentModel string

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
					case ch <- llm.StreamChunk{Err: &llm.Error{
						Code: llm.ErrUpstreamError, Message: err.Error(),
						HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
					}}:
					}
				}
				return
			}

			line = strings.TrimSpace(line)
			// the stream interleaves "event: <type>" and "data: <json>" lines
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var event anthropicStreamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}

			switch event.Type {
			case "message_start":
				if event.Message != nil {
					currentID = event.Message.ID
					currentModel = event.Message.Model
				}

			case "content_block_delta":
				if event.Delta == nil || event.Delta.Text == "" {
					continue
				}
				chunk := llm.StreamChunk{
					ID:       currentID,
					Provider: p.Name(),
					Model:    currentModel,
					Index:    event.Index,
					Delta: llm.Message{
						Role:    llm.RoleAssistant,
						Content: event.Delta.Text,
					},
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}

			case "message_delta":
				chunk := llm.StreamChunk{
					ID:       currentID,
					Provider: p.Name(),
					Model:    currentModel,
				}
				if event.Delta != nil {
					chunk.FinishReason = event.Delta.StopReason
				}
				if event.Usage != nil {
					chunk.Usage = &llm.ChatUsage{
						CompletionTokens: event.Usage.OutputTokens,
					}
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}

			case "message_stop":
				return
			}
		}
	}()
	return ch, nil
}

// HealthCheck verifies the API is reachable via the models listing.
func (p *AnthropicProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("anthropic health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
