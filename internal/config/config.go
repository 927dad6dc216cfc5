package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr    string
	KafkaBrokers []string

	JWTSecret     []byte
	RefreshSecret []byte

	AccessExpires     time.Duration
	RefreshExpires    time.Duration
	ActivationExpires time.Duration
	ResetExpires      time.Duration

	AdminEmails []string
	MailSender  string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisAddr:    EnvDefault("REDIS_ADDR", "127.0.0.1:6379"),
		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),

		AccessExpires:     time.Duration(EnvIntDefault("ACCESS_EXPIRES_MIN", 20)) * time.Minute,
		RefreshExpires:    time.Duration(EnvIntDefault("REFRESH_EXPIRES_HOURS", 48)) * time.Hour,
		ActivationExpires: time.Duration(EnvIntDefault("ACTIVATION_EXPIRES_HOURS", 72)) * time.Hour,
		ResetExpires:      time.Duration(EnvIntDefault("RESET_EXPIRES_MIN", 60)) * time.Minute,

		AdminEmails: CSV(os.Getenv("ADMIN_EMAILS")),
		MailSender:  EnvDefault("MAIL_SENDER", "no-reply@gatekeeper.local"),
	}

	MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")

	return cfg
}

func (c *Config) DatabaseDSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
