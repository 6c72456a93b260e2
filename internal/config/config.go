package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Parametros del motor de score.
	MaxSleepHours  float64 `env:"MAX_SLEEP_HOURS" envDefault:"14"`
	RoundingDigits int     `env:"ROUNDING_DIGITS" envDefault:"2"`
	ClampOutput    bool    `env:"CLAMP_OUTPUT" envDefault:"true"`

	// Proveedor de interpretacion: "stub" u "openai".
	AIProvider      string `env:"AI_PROVIDER" envDefault:"stub"`
	AIAPIKey        string `env:"AI_API_KEY"`
	AIBaseURL       string `env:"AI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AIModel         string `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	AITimeoutSecs   int    `env:"AI_TIMEOUT_SECS" envDefault:"12"`
	AIRateLimit     int    `env:"AI_RATE_LIMIT" envDefault:"10"`
	AIRateWindowMin int    `env:"AI_RATE_WINDOW_MIN" envDefault:"10"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
