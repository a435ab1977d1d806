package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	API        APIConfig
	Session    SessionConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	PaperCache PaperCacheConfig
}

// APIConfig points the front end at the backend REST API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls browser session cookies and workspace lifetime.
type SessionConfig struct {
	CookieName      string
	TokenCookieName string
	SecureCookies   bool
	WorkspaceTTL    time.Duration
	SweepInterval   time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify backend-issued tokens.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PaperCacheConfig governs the optional Redis cache for paper lists.
type PaperCacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	WriteWorkers int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
	}

	cfg.Session = SessionConfig{
		CookieName:      v.GetString("SESSION_COOKIE"),
		TokenCookieName: v.GetString("TOKEN_COOKIE"),
		SecureCookies:   v.GetBool("SECURE_COOKIES"),
		WorkspaceTTL:    parseDuration(v.GetString("WORKSPACE_TTL"), 30*time.Minute),
		SweepInterval:   parseDuration(v.GetString("WORKSPACE_SWEEP_INTERVAL"), 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.PaperCache = PaperCacheConfig{
		Enabled:      v.GetBool("ENABLE_PAPER_CACHE"),
		TTL:          parseDuration(v.GetString("PAPER_CACHE_TTL"), 10*time.Minute),
		WriteWorkers: v.GetInt("PAPER_CACHE_WRITE_WORKERS"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)

	v.SetDefault("API_BASE_URL", "http://localhost:3500")
	v.SetDefault("API_TIMEOUT", "10s")

	v.SetDefault("SESSION_COOKIE", "cbdms_sid")
	v.SetDefault("TOKEN_COOKIE", "access_token")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("WORKSPACE_TTL", "30m")
	v.SetDefault("WORKSPACE_SWEEP_INTERVAL", "5m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_PAPER_CACHE", false)
	v.SetDefault("PAPER_CACHE_TTL", "10m")
	v.SetDefault("PAPER_CACHE_WRITE_WORKERS", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
