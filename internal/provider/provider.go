// Package provider содержит адаптеры к сервисам генерации текста (OpenAI, DeepSeek, Gemini, Ollama).
// Все адаптеры приводят ошибки к общим типам из models.
package provider

import (
	"context"
	"errors"
	"fmt"

	"horror-story-server/internal/models"
)

// Роли сообщений диалога.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message - сообщение диалога без системного промта.
type Message struct {
	Role    string
	Content string
}

// Image - изображение, прикрепляемое к последнему сообщению пользователя.
type Image struct {
	MIMEType string
	Data     []byte
}

// Params - параметры генерации. Указатели позволяют отличить 0 от "не задано".
type Params struct {
	Temperature      *float64
	TopP             *float64
	TopK             *int
	PresencePenalty  *float64
	FrequencyPenalty *float64
	MaxTokens        *int
	// JSON просит провайдера вернуть строго JSON-объект.
	JSON bool
}

// Request - запрос на генерацию.
type Request struct {
	System   string
	Messages []Message
	Images   []Image
	Params   Params
}

// Usage - расход токенов.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion - результат генерации.
type Completion struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
}

// Provider генерирует текст по запросу. Реализации безопасны для конкурентного использования.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Completion, error)
}

// Resolver возвращает провайдера по имени.
type Resolver interface {
	Resolve(name string) (Provider, error)
}

// Float64 возвращает указатель на v.
func Float64(v float64) *float64 { return &v }

// Int возвращает указатель на v.
func Int(v int) *int { return &v }

func float32Val(f *float64) float32 {
	if f == nil {
		return 0 // 0 - значение по умолчанию у провайдера
	}
	return float32(*f)
}

func float32Ptr(f *float64) *float32 {
	if f == nil {
		return nil
	}
	v := float32(*f)
	return &v
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// lastUserIndex возвращает индекс последнего сообщения пользователя или -1.
func lastUserIndex(msgs []Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

// transportError оборачивает сетевую ошибку или отмену контекста.
func transportError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrTransport, provider, err)
}

func emptyCompletionError(provider string) error {
	return fmt.Errorf("%w: %s", models.ErrEmptyCompletion, provider)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
