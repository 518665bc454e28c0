// Package gemini implements the Google Gemini provider adapter.
//
// Gemini's generateContent API differs from the OpenAI wire format:
// authentication uses the x-goog-api-key header, messages are
// role/parts "contents" with the assistant role named "model", the
// system prompt travels as systemInstruction, and generation parameters
// sit in a nested generationConfig object.
package gemini

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

const fallbackModel = "gemini-1.5-flash"

// GeminiProvider implements the Google Gemini adapter.
type GeminiProvider struct {
	cfg    providers.GeminiConfig
	client *http.Client
	logger *zap.Logger
}

// NewGeminiProvider creates a new Gemini adapter.
func NewGeminiProvider(cfg providers.GeminiConfig, logger *zap.Logger) *GeminiProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *GeminiProvider) Name() string { return "google" }

func (p *GeminiProvider) buildHeaders(req *http.Request, apiKey string) {
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            float32  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string               `json:"modelVersion,omitempty"`
	ResponseID    string               `json:"responseId,omitempty"`
}

// convertContents splits out the system instruction and maps the rest to
// Gemini's role/parts shape. Gemini names the assistant role "model".
func convertContents(msgs []llm.Message) (*geminiContent, []geminiContent) {
	var system *geminiContent
	var contents []geminiContent

	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			continue
		}
		if m.Content == "" {
			continue
		}
		role := string(m.Role)
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	return system, contents
}

func (p *GeminiProvider) chooseModel(req *llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return fallbackModel
}

func (p *GeminiProvider) buildBody(req *llm.ChatRequest) geminiRequest {
	system, contents := convertContents(req.Messages)

	temperature := req.Temperature
	if temperature == nil {
		temperature = p.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}

	body := geminiRequest{
		Contents:          contents,
		SystemInstruction: system,
	}
	if temperature != nil || req.TopP != 0 || maxTokens != 0 || len(req.Stop) > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     temperature,
			TopP:            req.TopP,
			MaxOutputTokens: maxTokens,
			StopSequences:   req.Stop,
		}
	}
	return body
}

func (p *GeminiProvider) post(ctx context.Context, endpoint string, body geminiRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

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

// Completion performs a synchronous generateContent request.
func (p *GeminiProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := p.chooseModel(req)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)

	resp, err := p.post(ctx, endpoint, p.buildBody(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	return p.toChatResponse(gResp, model), nil
}

func (p *GeminiProvider) toChatResponse(gResp geminiResponse, model string) *llm.ChatResponse {
	out := &llm.ChatResponse{
		ID:       gResp.ResponseID,
		Provider: p.Name(),
		Model:    model,
		Choices:  make([]llm.ChatChoice, 0, len(gResp.Candidates)),
	}
	if gResp.ModelVersion != "" {
		out.Model = gResp.ModelVersion
	}
	if gResp.UsageMetadata != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     gResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gResp.UsageMetadata.TotalTokenCount,
		}
	}
	for _, cand := range gResp.Candidates {
		var text strings.Builder
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
		out.Choices = append(out.Choices, llm.ChatChoice{
			Index:        cand.Index,
			FinishReason: strings.ToLower(cand.FinishReason),
			Message: llm.Message{
				Role:    llm.RoleAssistant,
				Content: text.String(),
			},
		})
	}
	return out
}

// Stream performs a streaming generateContent request over SSE.
func (p *GeminiProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	model := p.chooseModel(req)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", strings.TrimRight(p.cfg.BaseURL, "/"), model)

	resp, err := p.post(ctx, endpoint, p.buildBody(req))
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
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var gResp geminiResponse
			if err := json.Unmarshal([]byte(data), &gResp); err != nil {
				continue
			}

			for _, cand := range gResp.Candidates {
				var text strings.Builder
				for _, part := range cand.Content.Parts {
					text.WriteString(part.Text)
				}
				chunk := llm.StreamChunk{
					ID:           gResp.ResponseID,
					Provider:     p.Name(),
					Model:        model,
					Index:        cand.Index,
					FinishReason: strings.ToLower(cand.FinishReason),
					Delta: llm.Message{
						Role:    llm.RoleAssistant,
						Content: text.String(),
					},
				}
				if gResp.UsageMetadata != nil {
					chunk.Usage = &llm.ChatUsage{
						PromptTokens:     gResp.UsageMetadata.PromptTokenCount,
						CompletionTokens: gResp.UsageMetadata.CandidatesTokenCount,
						TotalTokens:      gResp.UsageMetadata.TotalTokenCount,
					}
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
		}
	}()
	return ch, nil
}

// HealthCheck verifies the API is reachable via the models listing.
func (p *GeminiProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1beta/models", strings.TrimRight(p.cfg.BaseURL, "/"))
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
			fmt.Errorf("gemini health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
