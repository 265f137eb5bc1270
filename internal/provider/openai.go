package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"horror-story-server/internal/models"
)

// OpenAIOptions - настройки OpenAI-совместимого провайдера (OpenAI, DeepSeek).
type OpenAIOptions struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// openAIProvider реализует Provider через go-openai.
type openAIProvider struct {
	name   string
	model  string
	client *openaigo.Client
	logger *zap.Logger
}

// NewOpenAI создает OpenAI-совместимый провайдер.
func NewOpenAI(opts OpenAIOptions, logger *zap.Logger) Provider {
	openaiConfig := openaigo.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		openaiConfig.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}

	logger.Info("OpenAI-compatible provider created",
		zap.String("provider", opts.Name),
		zap.String("baseURL", openaiConfig.BaseURL),
		zap.String("model", opts.Model),
		zap.Duration("timeout", opts.Timeout),
	)
	return &openAIProvider{
		name:   opts.Name,
		model:  opts.Model,
		client: openaigo.NewClientWithConfig(openaiConfig),
		logger: logger,
	}
}

func (p *openAIProvider) Name() string  { return p.name }
func (p *openAIProvider) Model() string { return p.model }

// Generate отправляет запрос chat/completions.
func (p *openAIProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	chatReq := openaigo.ChatCompletionRequest{
		Model:            p.model,
		Messages:         p.buildMessages(req),
		Temperature:      float32Val(req.Params.Temperature),
		TopP:             float32Val(req.Params.TopP),
		PresencePenalty:  float32Val(req.Params.PresencePenalty),
		FrequencyPenalty: float32Val(req.Params.FrequencyPenalty),
		MaxTokens:        intVal(req.Params.MaxTokens),
	}
	if req.Params.JSON {
		chatReq.ResponseFormat = &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.mapError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, emptyCompletionError(p.name)
	}

	completion := &Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if completion.Model == "" {
		completion.Model = p.model
	}
	if completion.Usage.TotalTokens == 0 {
		// Некоторые совместимые API не возвращают usage
		completion.Usage.PromptTokens = estimateTokens(p.model, promptTexts(req)...)
		completion.Usage.CompletionTokens = estimateTokens(p.model, completion.Text)
		completion.Usage.TotalTokens = completion.Usage.PromptTokens + completion.Usage.CompletionTokens
	}
	return completion, nil
}

func (p *openAIProvider) buildMessages(req Request) []openaigo.ChatCompletionMessage {
	messages := make([]openaigo.ChatCompletionMessage, 0, len(req.Messages)+2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	imagesAt := -1
	if len(req.Images) > 0 {
		imagesAt = lastUserIndex(req.Messages)
	}
	for i, m := range req.Messages {
		msg := openaigo.ChatCompletionMessage{Role: m.Role}
		if i == imagesAt {
			msg.MultiContent = multiContent(m.Content, req.Images)
		} else {
			msg.Content = m.Content
		}
		messages = append(messages, msg)
	}
	if len(req.Images) > 0 && imagesAt < 0 {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:         openaigo.ChatMessageRoleUser,
			MultiContent: multiContent("", req.Images),
		})
	}
	return messages
}

func multiContent(text string, images []Image) []openaigo.ChatMessagePart {
	parts := make([]openaigo.ChatMessagePart, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openaigo.ChatMessagePart{Type: openaigo.ChatMessagePartTypeText, Text: text})
	}
	for _, img := range images {
		parts = append(parts, openaigo.ChatMessagePart{
			Type: openaigo.ChatMessagePartTypeImageURL,
			ImageURL: &openaigo.ChatMessageImageURL{
				URL:    dataURL(img),
				Detail: openaigo.ImageURLDetailAuto,
			},
		})
	}
	return parts
}

func dataURL(img Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data))
}

// mapError приводит ошибки go-openai к UpstreamError или ErrTransport.
func (p *openAIProvider) mapError(err error) error {
	if isContextError(err) {
		return transportError(p.name, err)
	}
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		p.logger.Warn("Provider returned error status",
			zap.String("provider", p.name), zap.Int("status", apiErr.HTTPStatusCode), zap.String("message", apiErr.Message))
		return &models.UpstreamError{Provider: p.name, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := strings.TrimSpace(string(reqErr.Body))
		if body == "" {
			body = reqErr.HTTPStatus
		}
		p.logger.Warn("Provider returned error status",
			zap.String("provider", p.name), zap.Int("status", reqErr.HTTPStatusCode))
		return &models.UpstreamError{Provider: p.name, Status: reqErr.HTTPStatusCode, Body: body}
	}
	p.logger.Error("Provider transport error", zap.String("provider", p.name), zap.Error(err))
	return transportError(p.name, err)
}

func promptTexts(req Request) []string {
	texts := make([]string, 0, len(req.Messages)+1)
	texts = append(texts, req.System)
	for _, m := range req.Messages {
		texts = append(texts, m.Content)
	}
	return texts
}
