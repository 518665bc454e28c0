package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{ name string }

func (f *fakeProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Provider: f.name}, nil
}
func (f *fakeProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	close(ch)
	return ch, nil
}
func (f *fakeProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: true}, nil
}
func (f *fakeProvider) Name() string { return f.name }

func TestProviderRegistry(t *testing.T) {
	reg := NewProviderRegistry()
	assert.Equal(t, 0, reg.Len())

	reg.Register("a", &fakeProvider{name: "a"})
	reg.Register("b", &fakeProvider{name: "b"})
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"a", "b"}, reg.List())

	p, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestProviderRegistry_Default(t *testing.T) {
	reg := NewProviderRegistry()

	_, err := reg.Default()
	require.Error(t, err)

	reg.Register("a", &fakeProvider{name: "a"})
	require.Error(t, reg.SetDefault("missing"))
	require.NoError(t, reg.SetDefault("a"))

	p, err := reg.Default()
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name())
}

func TestProviderRegistry_ReplaceKeepsName(t *testing.T) {
	reg := NewProviderRegistry()
	reg.Register("a", &fakeProvider{name: "old"})
	reg.Register("a", &fakeProvider{name: "new"})
	assert.Equal(t, 1, reg.Len())

	p, _ := reg.Get("a")
	assert.Equal(t, "new", p.Name())
}
