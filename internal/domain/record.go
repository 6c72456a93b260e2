package domain

import "time"

// Record es el registro diario persistido de un usuario.
// Valor inmutable: un upsert reemplaza el registro almacenado, nunca lo muta.
type Record struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Day        Day       `json:"date"`
	Mood       float64   `json:"mood"`
	SleepHours float64   `json:"sleep_hours"`
	Stress     float64   `json:"stress"`
	Focus      float64   `json:"focus"`
	Score      float64   `json:"score"`
	Annotation string    `json:"annotation,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
