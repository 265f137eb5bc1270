package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"horror-story-server/internal/config"
	"horror-story-server/internal/models"
)

type stubProvider struct {
	name, model string
	completion  *Completion
	err         error
	calls       int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Model() string { return s.model }
func (s *stubProvider) Generate(_ context.Context, _ Request) (*Completion, error) {
	s.calls++
	return s.completion, s.err
}

func TestRegistry_MissingCredential(t *testing.T) {
	cfg := &config.Config{
		OpenAIModel:     "gpt-4o-mini",
		GeminiModel:     "gemini-2.5-flash",
		DeepSeekModel:   "deepseek-chat",
		StoryProvider:   config.ProviderGemini,
		ChatProvider:    config.ProviderDeepSeek,
		ReadingProvider: config.ProviderOpenAI,
	}
	r, err := NewRegistry(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve(config.ProviderGemini)
	assert.ErrorIs(t, err, models.ErrMissingCredential)

	st := r.Status(config.ProviderGemini)
	assert.False(t, st.CredentialConfigured)
	assert.Equal(t, "gemini-2.5-flash", st.Model)
}

func TestRegistry_BuildsOnlyConfiguredProviders(t *testing.T) {
	cfg := &config.Config{
		DeepSeekBaseURL: "http://127.0.0.1:1/v1",
		DeepSeekModel:   "deepseek-chat",
		DeepSeekAPIKey:  "ds-key",
		OpenAIModel:     "gpt-4o-mini",
		StoryProvider:   config.ProviderDeepSeek,
		ChatProvider:    config.ProviderDeepSeek,
		ReadingProvider: config.ProviderOpenAI,
	}
	r, err := NewRegistry(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	p, err := r.Resolve(config.ProviderDeepSeek)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderDeepSeek, p.Name())
	assert.Equal(t, "deepseek-chat", p.Model())
	assert.True(t, r.Status(config.ProviderDeepSeek).CredentialConfigured)

	_, err = r.Resolve(config.ProviderOpenAI)
	assert.ErrorIs(t, err, models.ErrMissingCredential)
	_, err = r.Resolve(config.ProviderOllama)
	assert.ErrorIs(t, err, models.ErrMissingCredential, "ollama without base URL is not registered")
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewStaticRegistry()
	_, err := r.Resolve("mistral")
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
}

func TestRegistry_ResolveInstrumented(t *testing.T) {
	stub := &stubProvider{name: "openai", model: "gpt-test", completion: &Completion{Text: "ok", Usage: Usage{TotalTokens: 3, PromptTokens: 2, CompletionTokens: 1}}}
	r := NewStaticRegistry(stub)

	p, err := r.Resolve("openai")
	require.NoError(t, err)
	c, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Text)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "gpt-test", p.Model())
	assert.True(t, r.Status("openai").CredentialConfigured)
}

func TestRequestStatus(t *testing.T) {
	assert.Equal(t, "success", requestStatus(nil))
	assert.Equal(t, "error_upstream", requestStatus(&models.UpstreamError{Status: 500}))
	assert.Equal(t, "error_transport", requestStatus(transportError("x", context.DeadlineExceeded)))
	assert.Equal(t, "error_empty_response", requestStatus(emptyCompletionError("x")))
}
