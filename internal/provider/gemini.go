package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"horror-story-server/internal/models"
)

// providerGemini - имя провайдера в метриках и ошибках.
const providerGemini = "gemini"

// GeminiOptions - настройки Gemini API.
type GeminiOptions struct {
	APIKey  string
	BaseURL string // Пусто - адрес по умолчанию из SDK
	Model   string
	Timeout time.Duration
	// SafetyThreshold применяется ко всем категориям. Пусто - настройки модели по умолчанию.
	SafetyThreshold string
	// ThinkingBudget для JSON-запросов: размышления 2.5-моделей расходуют MaxOutputTokens.
	// 0 - без размышлений, -1 - динамический бюджет модели.
	ThinkingBudget int32
}

var geminiSafetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// geminiProvider реализует Provider через google.golang.org/genai.
type geminiProvider struct {
	client         *genai.Client
	model          string
	safety         []*genai.SafetySetting
	thinkingBudget int32
	logger         *zap.Logger
}

// NewGemini создает клиента Gemini API (аутентификация по API-ключу).
func NewGemini(ctx context.Context, opts GeminiOptions, logger *zap.Logger) (Provider, error) {
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Gemini: %w", err)
	}

	var safety []*genai.SafetySetting
	if opts.SafetyThreshold != "" {
		for _, category := range geminiSafetyCategories {
			safety = append(safety, &genai.SafetySetting{
				Category:  category,
				Threshold: genai.HarmBlockThreshold(opts.SafetyThreshold),
			})
		}
	}

	logger.Info("Gemini provider created",
		zap.String("model", opts.Model),
		zap.Duration("timeout", opts.Timeout),
		zap.String("safetyThreshold", opts.SafetyThreshold),
		zap.Int32("thinkingBudget", opts.ThinkingBudget),
	)
	return &geminiProvider{client: client, model: opts.Model, safety: safety, thinkingBudget: opts.ThinkingBudget, logger: logger}, nil
}

func (p *geminiProvider) Name() string  { return providerGemini }
func (p *geminiProvider) Model() string { return p.model }

// Generate вызывает models.generateContent.
func (p *geminiProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      float32Ptr(req.Params.Temperature),
		TopP:             float32Ptr(req.Params.TopP),
		PresencePenalty:  float32Ptr(req.Params.PresencePenalty),
		FrequencyPenalty: float32Ptr(req.Params.FrequencyPenalty),
		MaxOutputTokens:  int32(intVal(req.Params.MaxTokens)),
		SafetySettings:   p.safety,
	}
	if req.Params.TopK != nil {
		topK := float32(*req.Params.TopK)
		cfg.TopK = &topK
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Params.JSON {
		cfg.ResponseMIMEType = "application/json"
		budget := p.thinkingBudget
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, p.buildContents(req), cfg)
	if err != nil {
		return nil, p.mapError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			p.logger.Warn("Gemini blocked the prompt", zap.String("reason", string(resp.PromptFeedback.BlockReason)))
		}
		return nil, emptyCompletionError(providerGemini)
	}

	completion := &Completion{Text: text, Model: p.model}
	if resp.ModelVersion != "" {
		completion.Model = resp.ModelVersion
	}
	if len(resp.Candidates) > 0 {
		completion.FinishReason = strings.ToLower(string(resp.Candidates[0].FinishReason))
	}
	if u := resp.UsageMetadata; u != nil {
		completion.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return completion, nil
}

func (p *geminiProvider) buildContents(req Request) []*genai.Content {
	imagesAt := -1
	if len(req.Images) > 0 {
		imagesAt = lastUserIndex(req.Messages)
	}
	contents := make([]*genai.Content, 0, len(req.Messages)+1)
	for i, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		parts := []*genai.Part{genai.NewPartFromText(m.Content)}
		if i == imagesAt {
			parts = append(parts, imageParts(req.Images)...)
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	if len(req.Images) > 0 && imagesAt < 0 {
		contents = append(contents, genai.NewContentFromParts(imageParts(req.Images), genai.RoleUser))
	}
	return contents
}

func imageParts(images []Image) []*genai.Part {
	parts := make([]*genai.Part, 0, len(images))
	for _, img := range images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	return parts
}

// mapError приводит ошибки genai к UpstreamError или ErrTransport.
func (p *geminiProvider) mapError(err error) error {
	if isContextError(err) {
		return transportError(providerGemini, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		body := apiErr.Message
		if body == "" {
			body = apiErr.Status
		}
		p.logger.Warn("Provider returned error status",
			zap.String("provider", providerGemini), zap.Int("status", apiErr.Code), zap.String("message", body))
		return &models.UpstreamError{Provider: providerGemini, Status: apiErr.Code, Body: body}
	}
	p.logger.Error("Provider transport error", zap.String("provider", providerGemini), zap.Error(err))
	return transportError(providerGemini, err)
}
