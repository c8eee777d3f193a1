package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string `validate:"oneof=development production test"`
	Port      int    `validate:"min=1,max=65535"`
	APIPrefix string

	Upstream UpstreamConfig
	Listing  ListingConfig
	Console  ConsoleConfig
	Exports  ExportsConfig
	CORS     CORSConfig
	Log      LogConfig
}

// UpstreamConfig points the adapter at the platform API.
type UpstreamConfig struct {
	BaseURL   string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gt=0"`
	Token     string
	TokenFile string
}

// ListingConfig tunes every list controller.
type ListingConfig struct {
	DefaultLimit   int           `validate:"min=1,max=200"`
	SearchDebounce time.Duration `validate:"gt=0"`
	RequestFencing bool
}

// ConsoleConfig governs the server-driven views API.
type ConsoleConfig struct {
	ViewTTL   time.Duration `validate:"gt=0"`
	JWTSecret string
	JWTIssuer string
}

// ExportsConfig controls snapshot export storage and download links.
type ExportsConfig struct {
	StorageDir      string `validate:"required"`
	SignedURLSecret string `validate:"required"`
	SignedURLTTL    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string `validate:"omitempty,oneof=json console"`
}

// Load reads configuration from .env and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads configuration from envFile, which may be absent, and the
// environment. Environment variables win.
func LoadFrom(envFile string) (*Config, error) {
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:   strings.TrimSpace(v.GetString("UPSTREAM_BASE_URL")),
		Timeout:   parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		Token:     v.GetString("UPSTREAM_TOKEN"),
		TokenFile: v.GetString("UPSTREAM_TOKEN_FILE"),
	}

	cfg.Listing = ListingConfig{
		DefaultLimit:   v.GetInt("LIST_DEFAULT_LIMIT"),
		SearchDebounce: parseDuration(v.GetString("LIST_SEARCH_DEBOUNCE"), 300*time.Millisecond),
		RequestFencing: v.GetBool("LIST_REQUEST_FENCING"),
	}

	cfg.Console = ConsoleConfig{
		ViewTTL:   parseDuration(v.GetString("CONSOLE_VIEW_TTL"), 15*time.Minute),
		JWTSecret: v.GetString("CONSOLE_JWT_SECRET"),
		JWTIssuer: v.GetString("CONSOLE_JWT_ISSUER"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_TOKEN", "")
	v.SetDefault("UPSTREAM_TOKEN_FILE", "")

	v.SetDefault("LIST_DEFAULT_LIMIT", 20)
	v.SetDefault("LIST_SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("LIST_REQUEST_FENCING", true)

	v.SetDefault("CONSOLE_VIEW_TTL", "15m")
	v.SetDefault("CONSOLE_JWT_SECRET", "")
	v.SetDefault("CONSOLE_JWT_ISSUER", "wellness-admin-console")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
