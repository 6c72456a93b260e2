package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"quantifyme/internal/llm"
	"quantifyme/internal/observability"
	"quantifyme/internal/score"
)

// InterpretationService genera la anotacion corta que acompana a un registro.
// Delega en un LLM cuando hay proveedor configurado; ante fallo o limite de
// tasa cae al texto determinista del stub, dejando constancia en el log.
type InterpretationService struct {
	client  llm.LLMClient
	limiter InterpretationRateLimiter
	timeout time.Duration
	logger  *zap.Logger
}

func NewInterpretationService(client llm.LLMClient, limiter InterpretationRateLimiter, timeout time.Duration, logger *zap.Logger) *InterpretationService {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &InterpretationService{
		client:  client,
		limiter: limiter,
		timeout: timeout,
		logger:  logger,
	}
}

// GenerateAnnotation devuelve un consejo corto para el score y las metricas
// del dia. Nunca falla: siempre hay al menos el texto del stub.
func (s *InterpretationService) GenerateAnnotation(ctx context.Context, key string, scoreValue float64, m score.Metrics) string {
	if s.client == nil {
		return StubAnnotation(scoreValue, m)
	}

	if s.limiter != nil && !s.limiter.Allow(key) {
		if s.logger != nil {
			s.logger.Warn("interpretation rate limited, using stub", zap.String("key", key))
		}
		observability.RecordInterpretationFallback("rate_limited")
		return StubAnnotation(scoreValue, m)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Generate(genCtx, buildInterpretationPrompt(scoreValue, m))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("llm interpretation failed, using stub", zap.Error(err))
		}
		observability.RecordInterpretationFallback("llm_error")
		return StubAnnotation(scoreValue, m)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		observability.RecordInterpretationFallback("empty_response")
		return StubAnnotation(scoreValue, m)
	}
	return text
}

func buildInterpretationPrompt(scoreValue float64, m score.Metrics) string {
	return fmt.Sprintf(
		"Eres un coach cercano y no medico. En maximo dos frases, da un consejo concreto "+
			"basado en el score cognitivo del dia y las medidas brutas.\n\n"+
			"Score cognitivo (SCJ): %.2f\n"+
			"Animo: %.1f/10, Estres: %.1f/10, Sueno: %.1fh, Concentracion: %.1f/10\n"+
			"Responde en espanol, dos frases maximo.",
		scoreValue, m.Mood, m.Stress, m.SleepHours, m.Focus,
	)
}

// StubAnnotation genera un texto determinista sin red: el tramo del score
// mas refinamientos rapidos segun las metricas del dia.
func StubAnnotation(scoreValue float64, m score.Metrics) string {
	parts := []string{score.Interpret(scoreValue)}

	if m.Stress >= 7 {
		parts = append(parts, "Tu estres esta alto: respiracion 4-7-8 y una caminata corta ayudan.")
	}
	if m.SleepHours > 0 && m.SleepHours <= 5.5 {
		parts = append(parts, "Sueno corto: evita el multitasking, hidratate y considera una siesta breve.")
	}
	if m.Focus >= 8 && scoreValue >= 7 {
		parts = append(parts, "Ventana de foco: intenta 60-90 min de trabajo profundo.")
	}

	return strings.Join(parts, " ")
}
