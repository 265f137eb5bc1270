package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"horror-story-server/internal/models"
)

const providerOllama = "ollama"

// OllamaOptions - настройки локального Ollama.
type OllamaOptions struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ollamaProvider реализует Provider через нативный API Ollama. Ключ не нужен.
type ollamaProvider struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

// NewOllama создает клиента Ollama. BaseURL указывается без суффикса /v1.
func NewOllama(opts OllamaOptions, logger *zap.Logger) (Provider, error) {
	baseURL := strings.TrimSuffix(strings.TrimSuffix(opts.BaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}
	logger.Info("Ollama provider created",
		zap.String("baseURL", baseURL), zap.String("model", opts.Model), zap.Duration("timeout", opts.Timeout))

	return &ollamaProvider{
		client: api.NewClient(parsedURL, &http.Client{Timeout: opts.Timeout}),
		model:  opts.Model,
		logger: logger,
	}, nil
}

func (p *ollamaProvider) Name() string  { return providerOllama }
func (p *ollamaProvider) Model() string { return p.model }

// Generate вызывает /api/chat без стриминга.
func (p *ollamaProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	messages := make([]api.Message, 0, len(req.Messages)+2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	imagesAt := -1
	if len(req.Images) > 0 {
		imagesAt = lastUserIndex(req.Messages)
	}
	for i, m := range req.Messages {
		msg := api.Message{Role: m.Role, Content: m.Content}
		if i == imagesAt {
			msg.Images = imageData(req.Images)
		}
		messages = append(messages, msg)
	}
	if len(req.Images) > 0 && imagesAt < 0 {
		messages = append(messages, api.Message{Role: RoleUser, Images: imageData(req.Images)})
	}

	options := map[string]interface{}{}
	if req.Params.Temperature != nil {
		options["temperature"] = *req.Params.Temperature
	}
	if req.Params.TopP != nil {
		options["top_p"] = *req.Params.TopP
	}
	if req.Params.TopK != nil {
		options["top_k"] = *req.Params.TopK
	}
	if req.Params.PresencePenalty != nil {
		options["presence_penalty"] = *req.Params.PresencePenalty
	}
	if req.Params.FrequencyPenalty != nil {
		options["frequency_penalty"] = *req.Params.FrequencyPenalty
	}
	if req.Params.MaxTokens != nil {
		options["num_predict"] = *req.Params.MaxTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	if req.Params.JSON {
		chatReq.Format = []byte(`"json"`)
	}

	var resp api.ChatResponse
	err := p.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		resp = r // Без стриминга приходит один полный ответ
		return nil
	})
	if err != nil {
		return nil, p.mapError(err)
	}

	if strings.TrimSpace(resp.Message.Content) == "" {
		return nil, emptyCompletionError(providerOllama)
	}

	return &Completion{
		Text:         resp.Message.Content,
		Model:        p.model,
		FinishReason: resp.DoneReason,
		Usage: Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

func imageData(images []Image) []api.ImageData {
	data := make([]api.ImageData, 0, len(images))
	for _, img := range images {
		data = append(data, api.ImageData(img.Data))
	}
	return data
}

func (p *ollamaProvider) mapError(err error) error {
	if isContextError(err) {
		return transportError(providerOllama, err)
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode > 0 {
		body := statusErr.ErrorMessage
		if body == "" {
			body = statusErr.Status
		}
		p.logger.Warn("Provider returned error status",
			zap.String("provider", providerOllama), zap.Int("status", statusErr.StatusCode), zap.String("message", body))
		return &models.UpstreamError{Provider: providerOllama, Status: statusErr.StatusCode, Body: body}
	}
	p.logger.Error("Provider transport error", zap.String("provider", providerOllama), zap.Error(err))
	return transportError(providerOllama, err)
}
