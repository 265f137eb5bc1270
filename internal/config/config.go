package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Имена провайдеров генерации текста.
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

// Config содержит конфигурацию сервиса
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	// 0 - без сэмплирования
	LogSampleThereafter int `envconfig:"LOG_SAMPLE_THEREAFTER" default:"100"`

	// Настройки HTTP сервера
	ServerPort         string        `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"150s"` // Должен быть больше AI_TIMEOUT
	CORSAllowedOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Общие настройки AI
	AITimeout  time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	SecretsDir string        `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	OpenAIBaseURL   string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel     string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	DeepSeekBaseURL string `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`
	DeepSeekModel   string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	GeminiBaseURL   string `envconfig:"GEMINI_BASE_URL"` // Пусто - адрес по умолчанию из SDK
	GeminiModel     string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	// Порог блокировки для всех категорий безопасности Gemini (BLOCK_ONLY_HIGH и т.п.). Пусто - не передаем.
	GeminiSafetyThreshold string `envconfig:"GEMINI_SAFETY_THRESHOLD"`
	// Бюджет размышлений для JSON-ответов (главы истории). 0 - отключено, -1 - на усмотрение модели.
	GeminiThinkingBudget int32 `envconfig:"GEMINI_THINKING_BUDGET" default:"0"`
	// Ollama включается только если задан адрес (локальная разработка)
	OllamaBaseURL string `envconfig:"OLLAMA_BASE_URL"`
	OllamaModel   string `envconfig:"OLLAMA_MODEL" default:"llama3:8b"`

	// Секретные поля БЕЗ envconfig тега
	OpenAIAPIKey   string `ignored:"true"`
	GeminiAPIKey   string `ignored:"true"`
	DeepSeekAPIKey string `ignored:"true"`

	// Выбор провайдера для каждого эндпоинта
	StoryProvider   string `envconfig:"STORY_PROVIDER" default:"gemini"`
	ChatProvider    string `envconfig:"CHAT_PROVIDER" default:"deepseek"`
	ReadingProvider string `envconfig:"READING_PROVIDER" default:"openai"`

	// Параметры генерации глав
	StoryTemperature      float64 `envconfig:"STORY_TEMPERATURE" default:"0.7"`
	StoryTopP             float64 `envconfig:"STORY_TOP_P" default:"0.95"`
	StoryTopK             int     `envconfig:"STORY_TOP_K" default:"64"`
	StoryPresencePenalty  float64 `envconfig:"STORY_PRESENCE_PENALTY" default:"0.7"`
	StoryFrequencyPenalty float64 `envconfig:"STORY_FREQUENCY_PENALTY" default:"0.4"`
	StoryMaxTokens        int     `envconfig:"STORY_MAX_TOKENS" default:"800"`
	StoryHistoryWindow    int     `envconfig:"STORY_HISTORY_WINDOW" default:"2"`
	PromptsDir            string  `envconfig:"PROMPTS_DIR"` // Пусто - встроенные шаблоны

	// Консультант
	ChatPersona        string  `envconfig:"CHAT_PERSONA" default:"tsundere"`
	ChatTemperature    float64 `envconfig:"CHAT_TEMPERATURE" default:"0.6"`
	ChatMaxTokens      int     `envconfig:"CHAT_MAX_TOKENS" default:"250"`
	ChatMaxTokensLimit int     `envconfig:"CHAT_MAX_TOKENS_LIMIT" default:"1024"`

	// Чтение по фото
	ReadingMaxImageBytes int64 `envconfig:"READING_MAX_IMAGE_BYTES" default:"8388608"`

	// Rate limit. Redis используется как общее хранилище, если задан адрес.
	RateLimitPerMinute uint   `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword      string `ignored:"true"`
}

// GetAllowedOrigins разбивает CORSAllowedOrigins по запятой.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// APIKey возвращает ключ провайдера. Пустая строка - ключ не настроен.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey
	default:
		return ""
	}
}

// Validate проверяет значения, которые envconfig не может проверить сам.
func (c *Config) Validate() error {
	for _, p := range []struct{ field, value string }{
		{"STORY_PROVIDER", c.StoryProvider},
		{"CHAT_PROVIDER", c.ChatProvider},
		{"READING_PROVIDER", c.ReadingProvider},
	} {
		if !IsKnownProvider(p.value) {
			return fmt.Errorf("%s: неизвестный провайдер '%s'", p.field, p.value)
		}
	}
	if c.StoryHistoryWindow < 1 || c.StoryHistoryWindow > 2 {
		return fmt.Errorf("STORY_HISTORY_WINDOW должен быть 1 или 2, получено %d", c.StoryHistoryWindow)
	}
	if c.StoryMaxTokens <= 0 {
		return fmt.Errorf("STORY_MAX_TOKENS должен быть положительным, получено %d", c.StoryMaxTokens)
	}
	if c.ChatMaxTokens <= 0 || c.ChatMaxTokensLimit < c.ChatMaxTokens {
		return fmt.Errorf("некорректные CHAT_MAX_TOKENS=%d / CHAT_MAX_TOKENS_LIMIT=%d", c.ChatMaxTokens, c.ChatMaxTokensLimit)
	}
	if c.ReadingMaxImageBytes <= 0 {
		return fmt.Errorf("READING_MAX_IMAGE_BYTES должен быть положительным")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT должен быть положительным")
	}
	return nil
}

// IsKnownProvider сообщает, поддерживается ли провайдер.
func IsKnownProvider(name string) bool {
	switch name {
	case ProviderOpenAI, ProviderGemini, ProviderDeepSeek, ProviderOllama:
		return true
	}
	return false
}

// LoadConfig загружает конфигурацию из .env (если есть), переменных окружения и секретов.
// Отсутствие ключа провайдера не ошибка: об этом сообщается на уровне запроса.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: could not load %s: %v", envFilePath, err)
			}
		}
	}

	var cfg Config
	// Загружаем НЕсекретные переменные
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Загружаем НЕОБЯЗАТЕЛЬНЫЕ секреты
	cfg.OpenAIAPIKey = readSecret(cfg.SecretsDir, "openai_api_key", "OPENAI_API_KEY", "OPEN_API_KEY")
	cfg.GeminiAPIKey = readSecret(cfg.SecretsDir, "gemini_api_key", "GEMINI_API_KEY")
	cfg.DeepSeekAPIKey = readSecret(cfg.SecretsDir, "deepseek_api_key", "DEEPSEEK_API_KEY")
	cfg.RedisPassword = readSecret(cfg.SecretsDir, "redis_password", "REDIS_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return &cfg, nil
}
