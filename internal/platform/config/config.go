package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every externally supplied setting. It is loaded once at
// startup and treated as immutable afterwards; nothing else in the
// process reads the environment.
type Config struct {
	Env     string // "dev" or "prod"
	Addr    string
	BaseURL string // public URL used in emailed links, no trailing slash

	SessionSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost    string
	SMTPPort    string
	SMTPFrom    string
	AdminEmail  string
	MailEnabled bool

	HomeArticleLimit int

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment. The session secret
// has no default: cookies and reset links are worthless if the signing
// key is a known constant, so a missing secret is a startup error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Env:     getEnv("APP_ENV", "dev"),
		Addr:    ":" + getEnv("APP_PORT", "8080"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		SessionSecret: getEnv("SESSION_SECRET", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "blog"),
		DBPassword: getEnv("DB_PASSWORD", "blog"),
		DBName:     getEnv("DB_NAME", "blog"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SMTPHost:    getEnv("SMTP_HOST", "localhost"),
		SMTPPort:    getEnv("SMTP_PORT", "25"),
		SMTPFrom:    getEnv("SMTP_FROM", "Blog <blog@localhost>"),
		AdminEmail:  getEnv("ADMIN_EMAIL", ""),
		MailEnabled: getEnvAsBool("MAIL_ENABLED", false),

		HomeArticleLimit: getEnvAsInt("HOME_ARTICLE_LIMIT", 100),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET must be set")
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
