package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"horror-story-server/internal/config"
	"horror-story-server/internal/models"
)

// Status - состояние провайдера для диагностики. Секреты не раскрываются.
type Status struct {
	Name                 string
	Model                string
	CredentialConfigured bool
}

// Registry хранит провайдеров, созданных при старте. После создания только читается.
type Registry struct {
	providers map[string]Provider
	models    map[string]string
}

// NewRegistry создает провайдеров, для которых есть ключ (или адрес для Ollama).
// Провайдер без ключа не ошибка: Resolve вернет ErrMissingCredential для конкретного запроса.
func NewRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]Provider),
		models: map[string]string{
			config.ProviderOpenAI:   cfg.OpenAIModel,
			config.ProviderDeepSeek: cfg.DeepSeekModel,
			config.ProviderGemini:   cfg.GeminiModel,
			config.ProviderOllama:   cfg.OllamaModel,
		},
	}

	if key := cfg.APIKey(config.ProviderOpenAI); key != "" {
		r.Register(NewOpenAI(OpenAIOptions{
			Name:    config.ProviderOpenAI,
			APIKey:  key,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AITimeout,
		}, logger.Named("OpenAI")))
	}
	if key := cfg.APIKey(config.ProviderDeepSeek); key != "" {
		r.Register(NewOpenAI(OpenAIOptions{
			Name:    config.ProviderDeepSeek,
			APIKey:  key,
			BaseURL: cfg.DeepSeekBaseURL,
			Model:   cfg.DeepSeekModel,
			Timeout: cfg.AITimeout,
		}, logger.Named("DeepSeek")))
	}
	if key := cfg.APIKey(config.ProviderGemini); key != "" {
		p, err := NewGemini(ctx, GeminiOptions{
			APIKey:          key,
			BaseURL:         cfg.GeminiBaseURL,
			Model:           cfg.GeminiModel,
			Timeout:         cfg.AITimeout,
			SafetyThreshold: cfg.GeminiSafetyThreshold,
			ThinkingBudget:  cfg.GeminiThinkingBudget,
		}, logger.Named("Gemini"))
		if err != nil {
			return nil, err
		}
		r.Register(p)
	}
	if cfg.OllamaBaseURL != "" {
		p, err := NewOllama(OllamaOptions{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.AITimeout,
		}, logger.Named("Ollama"))
		if err != nil {
			return nil, err
		}
		r.Register(p)
	}

	for _, name := range []string{cfg.StoryProvider, cfg.ChatProvider, cfg.ReadingProvider} {
		if _, ok := r.providers[name]; !ok {
			logger.Warn("Selected provider has no credential, requests will fail until it is configured",
				zap.String("provider", name))
		}
	}
	return r, nil
}

// NewStaticRegistry создает реестр из готовых провайдеров.
func NewStaticRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider), models: make(map[string]string)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register добавляет провайдера с метриками. Вызывается только при инициализации.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = Instrument(p)
	r.models[p.Name()] = p.Model()
}

// Resolve возвращает провайдера или ошибку конфигурации.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if !config.IsKnownProvider(name) {
		return nil, fmt.Errorf("%w: '%s'", models.ErrUnknownProvider, name)
	}
	return nil, fmt.Errorf("%w: ключ для провайдера '%s' не настроен", models.ErrMissingCredential, name)
}

// Status сообщает модель и наличие ключа провайдера.
func (r *Registry) Status(name string) Status {
	_, ok := r.providers[name]
	return Status{Name: name, Model: r.models[name], CredentialConfigured: ok}
}
