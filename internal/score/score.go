package score

import (
	"fmt"
	"math"
	"strings"
)

// Escalas por defecto del SCJ (Score Cognitivo Journalier).
const (
	MinScale = 0.0
	MaxScale = 10.0

	// DefaultMaxSleepHours limita las horas de sueno para no distorsionar el score.
	DefaultMaxSleepHours = 14.0

	DefaultRoundingDigits = 2
)

// Metrics son las entradas de una jornada. Valor transitorio, sin identidad.
type Metrics struct {
	Mood       float64 `json:"mood"`
	SleepHours float64 `json:"sleep_hours"`
	Stress     float64 `json:"stress"`
	Focus      float64 `json:"focus"`
}

// Weights asigna un peso con signo a cada metrica. Forma fija: un campo por
// metrica, sin mapas abiertos que permitan claves mal escritas.
type Weights struct {
	Focus      float64 `json:"focus"`
	Mood       float64 `json:"mood"`
	SleepHours float64 `json:"sleep_hours"`
	Stress     float64 `json:"stress"`
}

// DefaultWeights devuelve el set canonico. Suma absoluta = 5 para conservar
// la escala 0..10.
func DefaultWeights() Weights {
	return Weights{Focus: 2.0, Mood: 1.0, SleepHours: 1.0, Stress: -1.0}
}

func (w Weights) absSum() float64 {
	return math.Abs(w.Focus) + math.Abs(w.Mood) + math.Abs(w.SleepHours) + math.Abs(w.Stress)
}

// Result es el resultado de un calculo. Raw conserva el valor previo a
// clamp y redondeo; Score es el valor presentado.
type Result struct {
	Score   float64 `json:"score"`
	Raw     float64 `json:"raw"`
	Weights Weights `json:"weights"`
}

// Violation describe un campo fuera de dominio.
type Violation struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ValidationError acumula todas las violaciones de una validacion, no solo
// la primera.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s out of range: %g (expected %g..%g)", v.Field, v.Value, v.Min, v.Max))
	}
	return strings.Join(parts, "; ")
}

// Engine calcula el SCJ. Puro, sin I/O ni estado oculto.
type Engine struct {
	maxSleepHours float64
	rounding      int
	clamp         bool
}

// NewEngine construye un Engine. maxSleepHours <= 0 usa el cap por defecto;
// rounding < 0 usa el redondeo por defecto.
func NewEngine(maxSleepHours float64, rounding int, clamp bool) *Engine {
	if maxSleepHours <= 0 {
		maxSleepHours = DefaultMaxSleepHours
	}
	if rounding < 0 {
		rounding = DefaultRoundingDigits
	}
	return &Engine{
		maxSleepHours: maxSleepHours,
		rounding:      rounding,
		clamp:         clamp,
	}
}

// MaxSleepHours expone el cap configurado.
func (e *Engine) MaxSleepHours() float64 {
	return e.maxSleepHours
}

// Validate revisa cada metrica contra su dominio y devuelve un
// *ValidationError con todas las violaciones, o nil si todo esta en rango.
func (e *Engine) Validate(m Metrics) error {
	var violations []Violation

	check := func(field string, value, min, max float64) {
		if value < min || value > max {
			violations = append(violations, Violation{Field: field, Value: value, Min: min, Max: max})
		}
	}

	check("mood", m.Mood, MinScale, MaxScale)
	check("sleep_hours", m.SleepHours, 0, e.maxSleepHours)
	check("stress", m.Stress, MinScale, MaxScale)
	check("focus", m.Focus, MinScale, MaxScale)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Compute calcula el SCJ con los pesos canonicos.
func (e *Engine) Compute(m Metrics) (Result, error) {
	return e.ComputeWithWeights(m, DefaultWeights())
}

// ComputeWithWeights calcula el SCJ con pesos arbitrarios.
//
// Formula: raw = (Σ peso*metrica) / (Σ |peso|). Con todos los pesos en cero
// el denominador se trata como 1.0 y el resultado es simplemente 0.
// Raw nunca se clampa ni se redondea; solo Score.
func (e *Engine) ComputeWithWeights(m Metrics, w Weights) (Result, error) {
	if err := e.Validate(m); err != nil {
		return Result{}, err
	}

	numerator := w.Focus*m.Focus + w.Mood*m.Mood + w.SleepHours*m.SleepHours + w.Stress*m.Stress
	denominator := w.absSum()
	if denominator == 0 {
		denominator = 1.0
	}
	raw := numerator / denominator

	final := raw
	if e.clamp {
		final = clamp(final, MinScale, MaxScale)
	}
	final = roundTo(final, e.rounding)

	return Result{Score: final, Raw: raw, Weights: w}, nil
}

// Interpret traduce un score a un mensaje corto por tramos fijos.
// Entradas fuera de rango se clampan antes de buscar el tramo; nunca falla.
func Interpret(s float64) string {
	s = clamp(s, MinScale, MaxScale)
	switch {
	case s >= 8.5:
		return "Energia mental muy alta. Aprovecha este pico para las tareas complejas."
	case s >= 7.0:
		return "Buena claridad mental. Planifica 1-2 bloques de trabajo profundo."
	case s >= 5.5:
		return "Estado correcto. Manten pausas regulares para seguir estable."
	case s >= 4.0:
		return "Bajon de ritmo. Prioriza tareas simples y recupera."
	default:
		return "Fatiga cognitiva marcada. Sueno, hidratacion y una pausa larga recomendados."
	}
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

func roundTo(v float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(v*factor) / factor
}
