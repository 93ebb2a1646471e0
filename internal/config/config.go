package config

import (
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"specflow/internal/domain"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config centraliza la configuración del servicio y de las herramientas de línea de comandos.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURL      string `env:"MONGO_URL"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"specflow"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	LLMAPIKey      string `env:"LLM_API_KEY"`
	LLMBaseURL     string `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	LLMTextModel   string `env:"LLM_TEXT_MODEL" envDefault:"llama-3.3-70b-versatile"`
	LLMVisionModel string `env:"LLM_VISION_MODEL" envDefault:"llama-3.2-11b-vision-preview"`

	JWTSecret       string `env:"JWT_SECRET"`
	JWTTTLMinutes   int    `env:"JWT_TTL_MINUTES" envDefault:"60"`
	ResetTTLMinutes int    `env:"RESET_TTL_MINUTES" envDefault:"15"`

	GoogleClientID    string `env:"GOOGLE_CLIENT_ID"`
	GoogleUserinfoURL string `env:"GOOGLE_USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v3/userinfo"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripePublicKey string `env:"STRIPE_PUBLIC_KEY"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"SpecFlow"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	ContactInbox string `env:"CONTACT_INBOX"`

	ClientURL      string   `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	APIBaseURL  string `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	SessionFile string `env:"SESSION_FILE"`
}

// LoadConfig carga .env si existe y luego las variables de entorno.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return &cfg, nil
}

// Validate comprueba los ajustes sin los cuales el backend no puede arrancar.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return &domain.ConfigurationError{Setting: "JWT_SECRET"}
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURL == "" {
			return &domain.ConfigurationError{Setting: "MONGO_URL"}
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return &domain.ConfigurationError{Setting: "DATABASE_URL"}
		}
	default:
		return &domain.ConfigurationError{Setting: "STORE_DRIVER", Reason: "must be mongo or postgres"}
	}
	if c.JWTTTLMinutes <= 0 || c.ResetTTLMinutes <= 0 {
		return &domain.ConfigurationError{Setting: "JWT_TTL_MINUTES", Reason: "token lifetimes must be positive"}
	}
	return nil
}

// MailEnabled reporta si hay un servidor SMTP configurado.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
