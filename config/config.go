package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const devSigningSecret = "dev-only-insecure-signing-secret"

const defaultAuditIntervalMinutes = 60

type Config struct {
	ServicePort      string
	MetricsPort      string
	Environment      string
	PostgreSQLConfig PostgreSQLConfig
	JWTConfig        JWTConfig
	PasswordConfig   PasswordConfig
	SMTPConfig       SMTPConfig
	NotifierConfig   NotifierConfig
	KafkaConfig      KafkaConfig
	TracingConfig    TracingConfig
	AuditConfig      AuditConfig
}

type PostgreSQLConfig struct {
	DBHost        string
	DBPort        string
	DBName        string
	DBUsername    string
	DBPassword    string
	RunMigrations bool
}

type JWTConfig struct {
	JWTSecret       string
	JWTKid          string
	TokenTTLMinutes int
}

type PasswordConfig struct {
	HashCost int
}

type SMTPConfig struct {
	Host     string
	Port     int
	StartTLS bool
	Username string
	Password string
	From     string
}

// Enabled is false when mail credentials are missing; notifications then
// degrade to a logged no-op.
func (c SMTPConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

type NotifierConfig struct {
	TimeoutSeconds int
	MaxRetries     int
	Workers        int
	QueueSize      int
}

type KafkaConfig struct {
	BrokerAddress string
	BrokerTopic   string
}

type TracingConfig struct {
	CollectorHost string
}

type AuditConfig struct {
	LegacyHashAuditIntervalMinutes int
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: getEnv("SERVICE_PORT", "8000"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		PostgreSQLConfig: PostgreSQLConfig{
			DBHost:        getEnv("DB_HOST", "localhost"),
			DBPort:        getEnv("DB_PORT", "5432"),
			DBName:        getEnv("DB_NAME", "platforme"),
			DBUsername:    getEnv("DB_USERNAME", "postgres"),
			DBPassword:    os.Getenv("DB_PASSWORD"),
			RunMigrations: getEnvBool("DB_RUN_MIGRATIONS", true),
		},
		JWTConfig: JWTConfig{
			JWTSecret:       getEnv("SECRET_KEY", os.Getenv("JWT_SECRET")),
			JWTKid:          os.Getenv("JWT_KID"),
			TokenTTLMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		},
		PasswordConfig: PasswordConfig{
			HashCost: getEnvInt("BCRYPT_COST", 10),
		},
		SMTPConfig: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			StartTLS: getEnvBool("SMTP_STARTTLS", true),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     getEnv("EMAIL_FROM", os.Getenv("EMAIL_USER")),
		},
		NotifierConfig: NotifierConfig{
			TimeoutSeconds: getEnvInt("NOTIFY_TIMEOUT_SECONDS", 10),
			MaxRetries:     getEnvInt("NOTIFY_MAX_RETRIES", 1),
			Workers:        getEnvInt("NOTIFY_WORKERS", 2),
			QueueSize:      getEnvInt("NOTIFY_QUEUE_SIZE", 100),
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress: os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:   getEnv("BROKER_TOPIC", "user-events"),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
		},
		AuditConfig: AuditConfig{
			LegacyHashAuditIntervalMinutes: getEnvInt("LEGACY_AUDIT_INTERVAL_MINUTES", defaultAuditIntervalMinutes),
		},
	}

	if conf.AuditConfig.LegacyHashAuditIntervalMinutes <= 0 {
		log.Warn().Str("component", "Config").Int("minutes", conf.AuditConfig.LegacyHashAuditIntervalMinutes).Msg("LEGACY_AUDIT_INTERVAL_MINUTES must be positive; using default")
		conf.AuditConfig.LegacyHashAuditIntervalMinutes = defaultAuditIntervalMinutes
	}

	return &conf
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate refuses to run production without a signing secret. Outside
// production a fixed development secret is filled in with a warning.
func (c *Config) Validate() error {
	if c.JWTConfig.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("SECRET_KEY must be set in production")
		}
		log.Warn().Str("component", "Config").Msg("SECRET_KEY not set; using development signing secret")
		c.JWTConfig.JWTSecret = devSigningSecret
	}

	if !c.SMTPConfig.Enabled() {
		log.Warn().Str("component", "Config").Msg("EMAIL_USER or EMAIL_PASS not configured; activation emails will not be sent")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}
