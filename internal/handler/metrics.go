package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chaptersGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horror_chapters_generated_total",
			Help: "Total number of generated story chapters by kind (opening, continuation, final).",
		},
		[]string{"kind"},
	)

	chatRepliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "horror_chat_replies_total",
		Help: "Total number of successful counselor replies.",
	})

	readingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horror_readings_total",
			Help: "Total number of successful photo readings by type.",
		},
		[]string{"type"},
	)
)

func chapterKind(chapter int, final bool) string {
	switch {
	case final:
		return "final"
	case chapter == 1:
		return "opening"
	default:
		return "continuation"
	}
}
