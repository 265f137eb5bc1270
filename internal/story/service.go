// Package story генерирует главы ветвящейся хоррор-истории.
// Сервис не хранит состояние: вся история приходит от клиента в каждом запросе.
package story

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"horror-story-server/internal/models"
	"horror-story-server/internal/provider"
)

// Options - настройки сервиса историй.
type Options struct {
	Provider      string
	HistoryWindow int
	Params        provider.Params
	PromptsDir    string
}

// Service генерирует одну главу за вызов.
type Service struct {
	resolver      provider.Resolver
	providerName  string
	historyWindow int
	params        provider.Params
	prompts       *Prompts
	logger        *zap.Logger
}

// NewService создает сервис и загружает шаблоны промтов.
func NewService(resolver provider.Resolver, opts Options, logger *zap.Logger) (*Service, error) {
	if opts.HistoryWindow < 1 || opts.HistoryWindow > 2 {
		return nil, fmt.Errorf("history window must be 1 or 2, got %d", opts.HistoryWindow)
	}
	prompts, err := LoadPrompts(opts.PromptsDir)
	if err != nil {
		return nil, err
	}
	params := opts.Params
	params.JSON = true
	return &Service{
		resolver:      resolver,
		providerName:  opts.Provider,
		historyWindow: opts.HistoryWindow,
		params:        params,
		prompts:       prompts,
		logger:        logger,
	}, nil
}

// ProviderName возвращает имя провайдера, выбранного для историй.
func (s *Service) ProviderName() string { return s.providerName }

// GenerateChapter проверяет запрос, строит промт, вызывает провайдера и проверяет ответ.
func (s *Service) GenerateChapter(ctx context.Context, req *models.ChapterRequest) (*models.ChapterResponse, error) {
	target, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	p, err := s.resolver.Resolve(s.providerName)
	if err != nil {
		return nil, err
	}

	system, err := s.prompts.System()
	if err != nil {
		return nil, err
	}
	var user string
	if target == 1 {
		user, err = s.prompts.Opening()
	} else {
		user, err = s.prompts.Continuation(target, *req.Choice, recentHistory(req.Log, s.historyWindow))
	}
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("sessionId", req.SessionID),
		zap.Int("targetChapter", target),
		zap.String("provider", p.Name()),
	)
	log.Debug("Generating chapter", zap.Int("logEntries", len(req.Log)), zap.Bool("reset", req.Reset))

	completion, err := p.Generate(ctx, provider.Request{
		System:   system,
		Messages: []provider.Message{{Role: provider.RoleUser, Content: user}},
		Params:   s.params,
	})
	if err != nil {
		log.Warn("Provider call failed", zap.Error(err))
		return nil, fmt.Errorf("ошибка генерации главы: %w", err)
	}

	chapter, received, err := decodeChapter(completion.Text)
	if err != nil {
		log.Warn("Model returned malformed chapter", zap.Error(err))
		return nil, err
	}
	if err := validateChapter(chapter, target); err != nil {
		log.Warn("Model chapter failed shape validation", zap.Error(err))
		return nil, &models.MalformedOutputError{Reason: "invalid response shape: " + err.Error(), Raw: completion.Text, Received: received}
	}

	resp := finalize(chapter)
	log.Info("Chapter generated",
		zap.Bool("isFinal", resp.IsFinal),
		zap.Int("totalTokens", completion.Usage.TotalTokens),
	)
	return resp, nil
}

// validateRequest проверяет запрос и возвращает номер главы, которую нужно написать.
func validateRequest(req *models.ChapterRequest) (int, error) {
	if req == nil || strings.TrimSpace(req.SessionID) == "" || req.Chapter == nil {
		return 0, models.NewInputError("sessionId and chapter are required")
	}
	chapter := *req.Chapter
	if chapter < 0 {
		return 0, models.NewInputError("chapter must be >= 0, got %d", chapter)
	}
	if req.Reset || chapter == 0 {
		return 1, nil
	}
	if chapter >= models.FinalChapter {
		return 0, models.NewInputError("story already ended at chapter %d", models.FinalChapter)
	}
	if req.Choice == nil || !req.Choice.Valid() {
		return 0, models.NewInputError("choice must be \"A\" or \"B\" to continue from chapter %d", chapter)
	}
	return chapter + 1, nil
}

