package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evalflow/llmselect/llm"
)

// ChatCompletionRequest is the wire format of the OpenAI chat completions
// endpoint, which Mistral, Together, Fireworks, Ollama and others also speak.
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature *float32                `json:"temperature,omitempty"`
	TopP        float32                 `json:"top_p,omitempty"`
	Stop        []string                `json:"stop,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
}

type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type ChatCompletionChoice struct {
	Index        int                    `json:"index"`
	FinishReason string                 `json:"finish_reason,omitempty"`
	Message      *ChatCompletionMessage `json:"message,omitempty"`
	Delta        *ChatCompletionMessage `json:"delta,omitempty"`
}

type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object,omitempty"`
	Created int64                  `json:"created,omitempty"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *ChatCompletionUsage   `json:"usage,omitempty"`
}

// ConvertMessages maps provider-neutral messages to the OpenAI wire shape.
func ConvertMessages(msgs []llm.Message) []ChatCompletionMessage {
	out := make([]ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return out
}

// ToChatResponse maps an OpenAI-compatible response back to the neutral type.
func ToChatResponse(resp ChatCompletionResponse, provider string) *llm.ChatResponse {
	out := &llm.ChatResponse{
		ID:       resp.ID,
		Provider: provider,
		Model:    resp.Model,
		Choices:  make([]llm.ChatChoice, 0, len(resp.Choices)),
	}
	if resp.Created != 0 {
		out.CreatedAt = time.Unix(resp.Created, 0)
	}
	if resp.Usage != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	for _, c := range resp.Choices {
		choice := llm.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
		}
		if c.Message != nil {
			choice.Message = llm.Message{
				Role:    llm.Role(c.Message.Role),
				Content: c.Message.Content,
			}
		}
		out.Choices = append(out.Choices, choice)
	}
	return out
}

// ChooseModel picks the request model, falling back to the adapter's
// configured default and then its hardcoded fallback.
func ChooseModel(req *llm.ChatRequest, defaultModel, fallbackModel string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if defaultModel != "" {
		return defaultModel
	}
	return fallbackModel
}

// ListModelsOpenAICompat fetches the /models listing shared by all
// OpenAI-compatible endpoints.
func ListModelsOpenAICompat(ctx context.Context, client *http.Client, baseURL, apiKey, provider, path string, buildHeaders func(*http.Request, string)) ([]llm.Model, error) {
	endpoint := strings.TrimRight(baseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	buildHeaders(httpReq, apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: provider,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		return nil, MapHTTPError(resp.StatusCode, msg, provider)
	}

	var listResp struct {
		Data []struct {
			ID      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: provider,
		}
	}

	models := make([]llm.Model, 0, len(listResp.Data))
	for _, m := range listResp.Data {
		models = append(models, llm.Model{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	return models, nil
}
