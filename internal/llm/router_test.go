package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name       string
	configured bool
	reply      string
	err        error
	lastReq    CompletionRequest
}

func (f *fakeProvider) Name() string              { return f.name }
func (f *fakeProvider) AvailableModels() []string { return []string{f.name + "-model"} }
func (f *fakeProvider) DefaultModel() string      { return f.name + "-model" }
func (f *fakeProvider) IsConfigured() bool        { return f.configured }

func (f *fakeProvider) Complete(_ context.Context, req CompletionRequest, model string) (*Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.reply, Model: model}, nil
}

func TestRouter_CompleteUsesDefaultProvider(t *testing.T) {
	qwen := &fakeProvider{name: "qianwen", configured: true, reply: `{"a":1}`}
	other := &fakeProvider{name: "openai", configured: true, reply: "wrong"}

	r := NewRouter("qianwen")
	r.RegisterProvider(qwen)
	r.RegisterProvider(other)

	out, err := r.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, "sys", qwen.lastReq.System)
	assert.Equal(t, "user", qwen.lastReq.User)
	assert.Equal(t, 0.2, qwen.lastReq.Temperature)
}

func TestRouter_CompleteErrors(t *testing.T) {
	r := NewRouter("qianwen")
	_, err := r.Complete(context.Background(), "sys", "user")
	assert.ErrorContains(t, err, "provider not found")

	r.RegisterProvider(&fakeProvider{name: "qianwen"})
	_, err = r.Complete(context.Background(), "sys", "user")
	assert.ErrorContains(t, err, "provider not configured")

	upstream := errors.New("429 too many requests")
	r.RegisterProvider(&fakeProvider{name: "qianwen", configured: true, err: upstream})
	_, err = r.Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, upstream)
}

func TestRouter_ProvidersInfo(t *testing.T) {
	r := NewRouter("ollama")
	r.RegisterProvider(&fakeProvider{name: "ollama", configured: true})
	r.RegisterProvider(&fakeProvider{name: "anthropic"})
	r.RegisterProvider(&fakeProvider{name: "deepseek", configured: true})

	assert.Equal(t, []string{"deepseek", "ollama"}, r.ListProviders())

	infos := r.GetProvidersInfo()
	require.Len(t, infos, 3)
	assert.Equal(t, "anthropic", infos[0].Name)
	assert.False(t, infos[0].Configured)
	assert.True(t, infos[2].Default)
}
