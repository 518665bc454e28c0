package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evalflow/llmselect/llm"
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletion(t *testing.T) {
	var gotBody anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		fmt.Fprint(w, `{
			"id": "msg_123",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "Hello"}, {"type": "text", "text": " there"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 6}
		}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider(providers.AnthropicConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  "sk-ant-test",
			BaseURL: srv.URL,
		},
	}, nil)

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model: "claude-3-5-sonnet-20241022",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "be brief"},
			{Role: llm.RoleUser, Content: "hi"},
		},
		Temperature: llm.Temp(0.2),
	})
	require.NoError(t, err)

	// system prompt travels in its own field, not in messages
	assert.Equal(t, "be brief", gotBody.System)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	// max_tokens is mandatory; the adapter injects a default
	assert.Equal(t, defaultMaxTokens, gotBody.MaxTokens)
	require.NotNil(t, gotBody.Temperature)
	assert.InDelta(t, 0.2, float64(*gotBody.Temperature), 1e-6)

	assert.Equal(t, "msg_123", resp.ID)
	assert.Equal(t, "anthropic", resp.Provider)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Hello there", resp.Choices[0].Message.Content)
	assert.Equal(t, "end_turn", resp.Choices[0].FinishReason)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
}

func TestCompletion_TemperatureAbsent(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		fmt.Fprint(w, `{"id": "msg_1", "model": "m", "content": [], "stop_reason": "end_turn"}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider(providers.AnthropicConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: srv.URL},
	}, nil)

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "claude-3-5-haiku-20241022",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	_, present := raw["temperature"]
	assert.False(t, present)
}

func TestCompletion_ErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		fmt.Fprint(w, `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider(providers.AnthropicConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: srv.URL},
	}, nil)

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "claude-3-5-sonnet-20241022",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrModelOverloaded, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`event: message_start`,
			`data: {"type":"message_start","message":{"id":"msg_s1","model":"claude-3-5-haiku-20241022","content":[]}}`,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
			`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":4}}`,
			`data: {"type":"message_stop"}`,
		}
		for _, e := range events {
			fmt.Fprintf(w, "%s\n\n", e)
		}
	}))
	defer srv.Close()

	p := NewAnthropicProvider(providers.AnthropicConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: srv.URL},
	}, nil)

	ch, err := p.Stream(context.Background(), &llm.ChatRequest{
		Model:    "claude-3-5-haiku-20241022",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	var text, finish, id string
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		text += chunk.Delta.Content
		id = chunk.ID
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	assert.Equal(t, "Hello", text)
	assert.Equal(t, "end_turn", finish)
	assert.Equal(t, "msg_s1", id)
}

func TestConvertMessages(t *testing.T) {
	system, msgs := convertMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "q"},
		{Role: llm.RoleAssistant, Content: "a"},
		{Role: llm.RoleUser, Content: ""}, // empty content is dropped
	})
	assert.Equal(t, "sys", system)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}
