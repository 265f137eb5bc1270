package provider

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"horror-story-server/internal/models"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horror_ai_requests_total",
			Help: "Total number of requests to AI providers.",
		},
		[]string{"provider", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horror_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"provider", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horror_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20), // 250 ... 5000
		},
		[]string{"provider", "model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horror_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20), // 100 ... 2000
		},
		[]string{"provider", "model"},
	)
)

// instrumented добавляет метрики Prometheus к любому провайдеру.
type instrumented struct {
	Provider
}

// Instrument оборачивает провайдера метриками запросов, длительности и токенов.
func Instrument(p Provider) Provider {
	return &instrumented{Provider: p}
}

func (i *instrumented) Generate(ctx context.Context, req Request) (*Completion, error) {
	labels := prometheus.Labels{"provider": i.Name(), "model": i.Model()}
	start := time.Now()
	completion, err := i.Provider.Generate(ctx, req)
	aiRequestDuration.With(labels).Observe(time.Since(start).Seconds())

	aiRequestsTotal.WithLabelValues(i.Name(), i.Model(), requestStatus(err)).Inc()
	if err == nil && completion.Usage.TotalTokens > 0 {
		aiPromptTokens.With(labels).Observe(float64(completion.Usage.PromptTokens))
		aiCompletionTokens.With(labels).Observe(float64(completion.Usage.CompletionTokens))
	}
	return completion, err
}

func requestStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrEmptyCompletion):
		return "error_empty_response"
	case errors.Is(err, models.ErrUpstream):
		return "error_upstream"
	case errors.Is(err, models.ErrTransport):
		return "error_transport"
	default:
		return "error"
	}
}
