// pkg/config/config.go
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	MaxLoginAttempts int
	LockDuration     time.Duration
	ResetTokenTTL    time.Duration
	IPLoginLimit     int
	IPLoginWindow    time.Duration
}

type LLMConfig struct {
	Provider       string // "openai" | "gemini"
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

type PaymentConfig struct {
	ClientID     string
	ApiKey       string
	ChecksumKey  string
	ReturnURL    string
	CancelURL    string
	ProviderName string
}

type EmailConfig struct {
	Providers  []string // ordered fallback chain
	FromEmail  string
	FromName   string
	AppName    string
	AppBaseURL string

	SendGridAPIKey string
	MailgunDomain  string
	MailgunAPIKey  string
	ResendAPIKey   string
	PostmarkToken  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseSSL   bool

	SendTimeout time.Duration
}

type OdooConfig struct {
	URL      string
	Database string
	Username string
	APIKey   string
}

type AffiliateDefaults struct {
	HoldbackPercent         int
	HoldbackDays            int
	FlagRefundRate          float64
	PauseRefundRate         float64
	MinCommissionsForAction int
	DefaultCommissionRate   float64
}

type HealthConfig struct {
	HealthyThreshold  int
	WarningThreshold  int
	CriticalThreshold int
	ScoreTTL          time.Duration
	RefreshWorkers    int
}

type SchedulerConfig struct {
	Enabled                bool
	HoldbackReleaseEvery   time.Duration
	SubscriptionSweepEvery time.Duration
	HealthRefreshEvery     time.Duration
}

type Config struct {
	Env       string
	HTTP      HTTPConfig
	Postgres  string
	Mongo     MongoConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Payment   PaymentConfig
	Email     EmailConfig
	Odoo      OdooConfig
	Affiliate AffiliateDefaults
	Health    HealthConfig
	Scheduler SchedulerConfig
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{
		Env: getEnvWithDefault("APP_ENV", "production"),
		HTTP: HTTPConfig{
			Port:        getEnvWithDefault("PORT", "8080"),
			CORSOrigins: getList("CORS_ORIGINS", nil),
		},
		Postgres: os.Getenv("POSTGRES_URL"),
		Mongo: MongoConfig{
			URI:      getEnvWithDefault("MONGO_URL", "mongodb://localhost:27017"),
			Database: getEnvWithDefault("MONGO_DB", "customermind"),
		},
		Redis: RedisConfig{
			Enabled:  getBool("REDIS_ENABLED", true),
			Addr:     getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:        os.Getenv("JWT_SECRET"),
			TokenTTL:         getDuration("JWT_TTL", 24*time.Hour),
			MaxLoginAttempts: getInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockDuration:     getDuration("AUTH_LOCK_DURATION", 30*time.Minute),
			ResetTokenTTL:    getDuration("AUTH_RESET_TOKEN_TTL", 15*time.Minute),
			IPLoginLimit:     getInt("AUTH_IP_LOGIN_LIMIT", 20),
			IPLoginWindow:    getDuration("AUTH_IP_LOGIN_WINDOW", 15*time.Minute),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnvWithDefault("LLM_PROVIDER", "openai")),
			Timeout:  getDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Payment: PaymentConfig{
			ClientID:     os.Getenv("PAYOS_CLIENT_ID"),
			ApiKey:       os.Getenv("PAYOS_API_KEY"),
			ChecksumKey:  os.Getenv("PAYOS_CHECKSUM_KEY"),
			ReturnURL:    os.Getenv("PAYOS_RETURN_URL"),
			CancelURL:    os.Getenv("PAYOS_CANCEL_URL"),
			ProviderName: "payos",
		},
		Email: EmailConfig{
			Providers:      getList("EMAIL_PROVIDERS", []string{"sendgrid", "mailgun", "resend", "postmark", "smtp"}),
			FromEmail:      getEnvWithDefault("EMAIL_FROM", "no-reply@customermind.ai"),
			FromName:       getEnvWithDefault("EMAIL_FROM_NAME", "CustomerMind IQ"),
			AppName:        getEnvWithDefault("APP_NAME", "CustomerMind IQ"),
			AppBaseURL:     getEnvWithDefault("APP_BASE_URL", "https://app.customermind.ai"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
			MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
			ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
			PostmarkToken:  os.Getenv("POSTMARK_SERVER_TOKEN"),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       getInt("SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			SMTPUseSSL:     getBool("SMTP_USE_SSL", false),
			SendTimeout:    getDuration("EMAIL_CAMPAIGN_TIMEOUT", 30*time.Minute),
		},
		Odoo: OdooConfig{
			URL:      os.Getenv("ODOO_URL"),
			Database: os.Getenv("ODOO_DB"),
			Username: os.Getenv("ODOO_USERNAME"),
			APIKey:   os.Getenv("ODOO_API_KEY"),
		},
		Affiliate: AffiliateDefaults{
			HoldbackPercent:         getInt("AFFILIATE_HOLDBACK_PERCENT", 20),
			HoldbackDays:            getInt("AFFILIATE_HOLDBACK_DAYS", 30),
			FlagRefundRate:          getFloat("AFFILIATE_FLAG_REFUND_RATE", 0.10),
			PauseRefundRate:         getFloat("AFFILIATE_PAUSE_REFUND_RATE", 0.20),
			MinCommissionsForAction: getInt("AFFILIATE_MIN_COMMISSIONS", 5),
			DefaultCommissionRate:   getFloat("AFFILIATE_COMMISSION_RATE", 0.30),
		},
		Health: HealthConfig{
			HealthyThreshold:  getInt("HEALTH_HEALTHY_THRESHOLD", 70),
			WarningThreshold:  getInt("HEALTH_WARNING_THRESHOLD", 60),
			CriticalThreshold: getInt("HEALTH_CRITICAL_THRESHOLD", 40),
			ScoreTTL:          getDuration("HEALTH_SCORE_TTL", 24*time.Hour),
			RefreshWorkers:    getInt("HEALTH_REFRESH_WORKERS", 4),
		},
		Scheduler: SchedulerConfig{
			Enabled:                getBool("SCHEDULER_ENABLED", true),
			HoldbackReleaseEvery:   getDuration("SCHEDULER_HOLDBACK_RELEASE_EVERY", time.Hour),
			SubscriptionSweepEvery: getDuration("SCHEDULER_SUBSCRIPTION_SWEEP_EVERY", 30*time.Minute),
			HealthRefreshEvery:     getDuration("SCHEDULER_HEALTH_REFRESH_EVERY", 24*time.Hour),
		},
	}

	switch cfg.LLM.Provider {
	case "gemini":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		cfg.LLM.ChatModel = getEnvWithDefault("GEMINI_MODEL", "gemini-1.5-flash")
	default:
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.LLM.ChatModel = getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini")
		cfg.LLM.EmbeddingModel = getEnvWithDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Postgres == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}
	if c.Health.CriticalThreshold > c.Health.WarningThreshold {
		errs = append(errs, errors.New("HEALTH_CRITICAL_THRESHOLD must not exceed HEALTH_WARNING_THRESHOLD"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnvWithDefault returns environment variable or default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(strings.ToLower(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
