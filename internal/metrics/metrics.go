// Package metrics регистрирует Prometheus-счетчики сервера.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal считает обработанные команды по глаголам.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escape_commands_total",
		Help: "Number of processed player commands by verb.",
	}, []string{"command"})

	// SessionsStarted считает созданные сессии по режимам.
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escape_sessions_started_total",
		Help: "Number of game sessions started by mode.",
	}, []string{"mode"})

	// GenerationFallbacks считает случаи синтеза резервной комнаты.
	GenerationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escape_generation_fallbacks_total",
		Help: "Number of fallback rooms synthesized, by reason.",
	}, []string{"reason"})
)
