// Package chat - консультант "혜숙이": добавляет промт персоны к истории клиента и вызывает провайдера.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"horror-story-server/internal/models"
	"horror-story-server/internal/provider"
)

// Options - настройки консультанта.
type Options struct {
	Provider       string
	Persona        string
	Temperature    float64
	MaxTokens      int
	MaxTokensLimit int
}

// Service отвечает на сообщения консультанту. Состояние диалога хранит клиент.
type Service struct {
	resolver provider.Resolver
	opts     Options
	system   string
	logger   *zap.Logger
	now      func() time.Time
}

// NewService создает консультанта с выбранной персоной.
func NewService(resolver provider.Resolver, opts Options, logger *zap.Logger) (*Service, error) {
	system, ok := systemPrompt(opts.Persona)
	if !ok {
		return nil, fmt.Errorf("неизвестная персона консультанта '%s'", opts.Persona)
	}
	if opts.MaxTokensLimit < opts.MaxTokens {
		opts.MaxTokensLimit = opts.MaxTokens
	}
	return &Service{resolver: resolver, opts: opts, system: system, logger: logger, now: time.Now}, nil
}

// ProviderName возвращает имя провайдера консультанта.
func (s *Service) ProviderName() string { return s.opts.Provider }

// Reply генерирует ответ ассистента на историю диалога.
func (s *Service) Reply(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	messages, err := validateMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params, err := s.params(req)
	if err != nil {
		return nil, err
	}

	p, err := s.resolver.Resolve(s.opts.Provider)
	if err != nil {
		return nil, err
	}

	completion, err := p.Generate(ctx, provider.Request{System: s.system, Messages: messages, Params: params})
	if err != nil {
		s.logger.Warn("Chat provider call failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, fmt.Errorf("ошибка ответа консультанта: %w", err)
	}

	finishReason := completion.FinishReason
	if finishReason == "" {
		finishReason = "stop"
	}
	s.logger.Debug("Chat reply generated",
		zap.String("provider", p.Name()),
		zap.Int("messages", len(messages)),
		zap.Int("totalTokens", completion.Usage.TotalTokens),
	)
	return &models.ChatResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: s.now().Unix(),
		Model:   completion.Model,
		Choices: []models.ChatChoice{{
			Index:        0,
			Message:      models.ChatMessage{Role: provider.RoleAssistant, Content: strings.TrimSpace(completion.Text)},
			FinishReason: finishReason,
		}},
		Usage: models.ChatUsage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}, nil
}

func (s *Service) params(req *models.ChatRequest) (provider.Params, error) {
	temperature := s.opts.Temperature
	if req.Temperature != nil {
		if *req.Temperature < 0 || *req.Temperature > 2 {
			return provider.Params{}, models.NewInputError("temperature must be between 0 and 2")
		}
		temperature = *req.Temperature
	}
	maxTokens := s.opts.MaxTokens
	if req.MaxTokens != nil {
		if *req.MaxTokens <= 0 {
			return provider.Params{}, models.NewInputError("max_tokens must be positive")
		}
		maxTokens = min(*req.MaxTokens, s.opts.MaxTokensLimit)
	}
	return provider.Params{Temperature: provider.Float64(temperature), MaxTokens: provider.Int(maxTokens)}, nil
}

// validateMessages пропускает только роли user и assistant. Пустая история - приветствие.
func validateMessages(in []models.ChatMessage) ([]provider.Message, error) {
	if len(in) == 0 {
		return []provider.Message{{Role: provider.RoleUser, Content: greeting}}, nil
	}
	out := make([]provider.Message, 0, len(in))
	for i, m := range in {
		if m.Role != provider.RoleUser && m.Role != provider.RoleAssistant {
			return nil, models.NewInputError("messages[%d]: role must be \"user\" or \"assistant\", got %q", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, models.NewInputError("messages[%d]: content is empty", i)
		}
		out = append(out, provider.Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}
