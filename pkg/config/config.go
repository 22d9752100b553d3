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
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Documents DocumentsConfig
	Metrics   MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DocumentsConfig tunes PDF generation, logo fetching and the issued-document archive.
type DocumentsConfig struct {
	RenderTimeout    time.Duration
	LogoTimeout      time.Duration
	LogoMaxBytes     int64
	LogoCacheTTL     time.Duration
	Timezone         string
	ArchiveEnabled   bool
	ArchiveDir       string
	ArchiveURLSecret string
	ArchiveURLTTL    time.Duration
}

// Location resolves the configured timezone, falling back to UTC.
func (c DocumentsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	logoMax := v.GetInt64("DOCUMENTS_LOGO_MAX_BYTES")
	if logoMax <= 0 {
		logoMax = 2 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		RenderTimeout:    parseDuration(v.GetString("DOCUMENTS_RENDER_TIMEOUT"), 30*time.Second),
		LogoTimeout:      parseDuration(v.GetString("DOCUMENTS_LOGO_TIMEOUT"), 3*time.Second),
		LogoMaxBytes:     logoMax,
		LogoCacheTTL:     parseDuration(v.GetString("DOCUMENTS_LOGO_CACHE_TTL"), 6*time.Hour),
		Timezone:         v.GetString("DOCUMENTS_TIMEZONE"),
		ArchiveEnabled:   v.GetBool("ENABLE_DOCUMENT_ARCHIVE"),
		ArchiveDir:       v.GetString("DOCUMENTS_ARCHIVE_DIR"),
		ArchiveURLSecret: v.GetString("DOCUMENTS_ARCHIVE_URL_SECRET"),
		ArchiveURLTTL:    parseDuration(v.GetString("DOCUMENTS_ARCHIVE_URL_TTL"), 24*time.Hour),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DOCUMENTS_RENDER_TIMEOUT", "30s")
	v.SetDefault("DOCUMENTS_LOGO_TIMEOUT", "3s")
	v.SetDefault("DOCUMENTS_LOGO_MAX_BYTES", 2*1024*1024)
	v.SetDefault("DOCUMENTS_LOGO_CACHE_TTL", "6h")
	v.SetDefault("DOCUMENTS_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("ENABLE_DOCUMENT_ARCHIVE", false)
	v.SetDefault("DOCUMENTS_ARCHIVE_DIR", "./archive")
	v.SetDefault("DOCUMENTS_ARCHIVE_URL_SECRET", "dev_archive_secret")
	v.SetDefault("DOCUMENTS_ARCHIVE_URL_TTL", "24h")

	v.SetDefault("ENABLE_METRICS", true)
}

func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist)
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
