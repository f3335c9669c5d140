package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort             string `env:"HTTP_PORT" envDefault:"3000"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"1440"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`
	RedisAddr            string `env:"REDIS_ADDR"`
	RedisPassword        string `env:"REDIS_PASSWORD"`
	RedisDB              int    `env:"REDIS_DB" envDefault:"0"`
	AMQPURL              string `env:"AMQP_URL"`
	RatesBaseURL         string `env:"RATES_BASE_URL" envDefault:"https://open.er-api.com/v6"`
	AssistBaseURL        string `env:"ASSIST_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AssistAPIKey         string `env:"ASSIST_API_KEY"`
	AssistModel          string `env:"ASSIST_MODEL" envDefault:"gpt-4o-mini"`
	SMTPHost             string `env:"SMTP_HOST"`
	SMTPPort             int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser             string `env:"SMTP_USER"`
	SMTPPass             string `env:"SMTP_PASS"`
	SMTPFrom             string `env:"SMTP_FROM"`
	SMTPFromName         string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS           bool   `env:"SMTP_USE_TLS" envDefault:"false"`
}

// ClientConfig agrupa lo que necesita el cliente de la tienda (storefront).
type ClientConfig struct {
	APIBaseURL   string `env:"API_BASE_URL" envDefault:"http://localhost:3000/api"`
	RatesBaseURL string `env:"RATES_BASE_URL" envDefault:"https://open.er-api.com/v6"`
	LocalStore   string `env:"LOCAL_STORE" envDefault:"homego.db"`
}

// LoadConfig carga la configuración del servidor desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
