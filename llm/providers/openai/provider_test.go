package openai

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

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(providers.OpenAIConfig{}, nil)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "https://api.openai.com", p.Cfg.BaseURL)
}

func TestOrganizationHeader(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "org-123", r.Header.Get("OpenAI-Organization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"id": "c1", "model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(providers.OpenAIConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  "sk-test",
			BaseURL: srv.URL,
			Extra:   map[string]any{"seed": 7},
		},
		Organization: "org-123",
	}, nil)

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	// extras reach the body; the organization never does
	assert.EqualValues(t, 7, gotBody["seed"])
	_, present := gotBody["organization"]
	assert.False(t, present)
}
