// Package reading - чтение по ладони и по лицу на загруженных фотографиях.
package reading

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"horror-story-server/internal/models"
	"horror-story-server/internal/provider"
)

const (
	palmSystemPrompt = "너는 손금 감상 가이드야. 사진 속 손바닥의 주요 손금(생명선/감정선/지능선/운명선)과 선의 굵기·연속성·갈라짐, " +
		"손가락의 길이 비율, 손바닥 형태/두툼함, 마디/산(금성구·목성구 등)과 전반 인상(건조/습기/굳은살)을 관찰해서 친절하고 재미있게 설명해. " +
		"금전·연애·일·건강·성향을 항목별 요약과 조언으로 정리해. " +
		"의학적 진단이나 확정적 단정은 피하고, 엔터테인먼트 목적임을 마지막에 한 줄로 알려줘."

	palmUserPrompt = "아래 손바닥 사진을 보고 손금 리포트를 한국어로 만들어줘. " +
		"구성: 1) 관찰 포인트 요약, 2) 손금별 해석(생명선/감정선/지능선/운명선), 3) 전반적 성향, 4) 오늘부터 실천 팁 3가지, 5) 한 문장 응원 메시지."

	// PalmFallback возвращается, если модель ничего не ответила.
	PalmFallback = "결과 생성에 실패했어요. 사진이 흐릿하지 않은지 확인해 주세요."

	faceSystemPrompt = "You are a respectful, entertainment-only face-reading assistant. Avoid sensitive attributes."

	palmTemperature = 0.7
	faceTemperature = 0.95
	faceMaxTokens   = 1800
)

// Service выполняет чтение по фото через провайдера с поддержкой изображений.
type Service struct {
	resolver     provider.Resolver
	providerName string
	logger       *zap.Logger
}

// NewService создает сервис чтения.
func NewService(resolver provider.Resolver, providerName string, logger *zap.Logger) *Service {
	return &Service{resolver: resolver, providerName: providerName, logger: logger}
}

// ProviderName возвращает имя провайдера для чтения.
func (s *Service) ProviderName() string { return s.providerName }

// PalmReading составляет отчет по фотографии ладони.
func (s *Service) PalmReading(ctx context.Context, image *models.UploadedImage) (string, error) {
	if image == nil || len(image.Data) == 0 {
		return "", models.NewInputError("image is required")
	}
	text, err := s.generate(ctx, provider.Request{
		System:   palmSystemPrompt,
		Messages: []provider.Message{{Role: provider.RoleUser, Content: palmUserPrompt}},
		Images:   []provider.Image{toImage(*image)},
		Params:   provider.Params{Temperature: provider.Float64(palmTemperature)},
	})
	if errors.Is(err, models.ErrEmptyCompletion) {
		s.logger.Warn("Palm reading returned empty text, using fallback")
		return PalmFallback, nil
	}
	return text, err
}

// FaceReading читает по одному лицу (single) или по паре (couple).
func (s *Service) FaceReading(ctx context.Context, req *models.FaceReadingRequest) (string, error) {
	mode := req.Mode
	if mode == "" {
		mode = models.FaceModeSingle
	}
	if mode != models.FaceModeSingle && mode != models.FaceModeCouple {
		return "", models.NewInputError("mode must be %q or %q", models.FaceModeSingle, models.FaceModeCouple)
	}
	if len(req.Images) < 1 || len(req.Images[0].Data) == 0 {
		return "", models.NewInputError("image1 is required")
	}
	images := []provider.Image{toImage(req.Images[0])}
	if mode == models.FaceModeCouple {
		if len(req.Images) < 2 || len(req.Images[1].Data) == 0 {
			return "", models.NewInputError("image2 is required")
		}
		images = append(images, toImage(req.Images[1]))
	}

	var messages []provider.Message
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		messages = []provider.Message{{Role: provider.RoleUser, Content: prompt}}
	}
	text, err := s.generate(ctx, provider.Request{
		System:   faceSystemPrompt,
		Messages: messages,
		Images:   images,
		Params:   provider.Params{Temperature: provider.Float64(faceTemperature), MaxTokens: provider.Int(faceMaxTokens)},
	})
	if errors.Is(err, models.ErrEmptyCompletion) {
		return "", nil // Пустой ответ не ошибка, фронтенд покажет свою заглушку
	}
	return text, err
}

func (s *Service) generate(ctx context.Context, req provider.Request) (string, error) {
	p, err := s.resolver.Resolve(s.providerName)
	if err != nil {
		return "", err
	}
	completion, err := p.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("Reading provider call failed", zap.String("provider", p.Name()), zap.Error(err))
		return "", fmt.Errorf("ошибка чтения по фото: %w", err)
	}
	return strings.TrimSpace(completion.Text), nil
}

func toImage(img models.UploadedImage) provider.Image {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return provider.Image{MIMEType: mime, Data: img.Data}
}
