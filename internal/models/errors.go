package models

import (
	"errors"
	"fmt"
)

// Стандартные ошибки сервиса. Классификация в HTTP-статус - через errors.Is.
var (
	// Ошибки конфигурации
	ErrMissingCredential = errors.New("missing provider credential")
	ErrUnknownProvider   = errors.New("unknown provider")

	// Ошибки входных данных клиента
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")

	// Ошибки провайдера генерации
	ErrUpstream        = errors.New("upstream provider error")
	ErrTransport       = errors.New("upstream transport error")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrEmptyCompletion = errors.New("empty completion from provider")
)

// UpstreamError - провайдер ответил не-2xx статусом.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// MalformedOutputError - текст модели не удалось разобрать или он не прошел проверку формы.
// Raw - исходный текст, Received - разобранный объект (если разбор удался).
type MalformedOutputError struct {
	Reason   string
	Raw      string
	Received any
}

func (e *MalformedOutputError) Error() string {
	return "malformed model output: " + e.Reason
}

func (e *MalformedOutputError) Unwrap() error { return ErrMalformedOutput }

// NewInputError оборачивает сообщение для клиента в ErrBadRequest.
func NewInputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
