package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Location    *time.Location
	CORSOrigins []string

	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	LoginRateLimit int // attempts per minute per address

	// Registration codes required to self-register as staff.
	TeacherCode string
	AdminCode   string

	SchoolName    string
	SchoolAddress string
	SchoolPhone   string

	RedisAddr     string
	RedisPassword string

	TelegramToken   string
	TelegramChatIDs []int64

	Seed              bool
	SeedAdminPassword string
}

// Load reads the environment, after applying .env when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tz := getenv("TZ", "Africa/Bamako")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	chatIDs, err := parseIDs(os.Getenv("TELEGRAM_CHAT_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_IDS: %w", err)
	}
	ttl, err := time.ParseDuration(getenv("ACCESS_TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	rate, err := strconv.Atoi(getenv("LOGIN_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
	}
	seed, err := strconv.ParseBool(getenv("SEED", "true"))
	if err != nil {
		return nil, fmt.Errorf("SEED: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		Env:               getenv("ENV", "dev"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		Location:          loc,
		CORSOrigins:       splitList(os.Getenv("CORS_ORIGINS")),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTIssuer:         getenv("JWT_ISSUER", "gestion-scolaire"),
		AccessTokenTTL:    ttl,
		LoginRateLimit:    rate,
		TeacherCode:       getenv("TEACHER_CODE", "PROF2025"),
		AdminCode:         getenv("ADMIN_CODE", "ADMIN2025"),
		SchoolName:        getenv("SCHOOL_NAME", "Lycée Michel ALLAIRE"),
		SchoolAddress:     getenv("SCHOOL_ADDRESS", "BP: 580 - Ségou, Mali"),
		SchoolPhone:       getenv("SCHOOL_PHONE", "21-32-11-20 / 79 07 03 60"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDs:   chatIDs,
		Seed:              seed,
		SeedAdminPassword: getenv("SEED_ADMIN_PASSWORD", "admin123"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("required env DATABASE_URL is empty"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("required env JWT_SECRET is empty"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProd() bool { return strings.ToLower(c.Env) == "prod" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
