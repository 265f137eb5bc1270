package models

// ErrorResponse - стандартное тело ответа об ошибке.
// OK всегда false: фронтенд проверяет либо ok, либо error.
type ErrorResponse struct {
	OK             bool   `json:"ok"`
	Error          string `json:"error"`
	Code           string `json:"code"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Detail         string `json:"detail,omitempty"`
	Received       any    `json:"received,omitempty"`
}

// Коды ошибок для поля ErrorResponse.Code
const (
	ErrCodeConfiguration   = "configuration_error"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUpstream        = "upstream_error"
	ErrCodeMalformedOutput = "malformed_output"
	ErrCodeTransport       = "transport_error"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternal        = "internal_error"
)

// DiagnosticsResponse - ответ GET-эндпоинтов: наличие ключа, но не сам ключ.
type DiagnosticsResponse struct {
	OK                   bool   `json:"ok"`
	Provider             string `json:"provider"`
	Model                string `json:"model,omitempty"`
	CredentialConfigured bool   `json:"credentialConfigured"`
}
