package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by SUBNETS_STORE_DRIVER.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName   string
	AppEnv    string
	AppPort   string
	APIPrefix string

	StoreDriver    string
	DatabaseURL    string
	RedisURL       string
	RedisNamespace string
	NATSURL        string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	NotificationsChannel string
	StreamKeepAlive      time.Duration
	CommentMaxDepth      int

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int

	RateLimitMax    int
	RateLimitWindow time.Duration

	SeedEnabled bool
	SeedToken   string

	LogLevel string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SUBNETS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SubNets API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("api.prefix", "/make-server-85349416")
	v.SetDefault("store.driver", StoreRedis)
	v.SetDefault("redis.namespace", "subnets:")
	v.SetDefault("jwt.issuer", "subnets-api")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("notifications.channel", "subnets")
	v.SetDefault("stream.keepalive", "15s")
	v.SetDefault("comment.max_depth", 64)
	v.SetDefault("cloudinary.folder", "subnets/posts")
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("log.level", "info")

	jwtTTL, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}
	keepAlive, err := parseDuration(v, "stream.keepalive")
	if err != nil {
		return Config{}, err
	}
	window, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		APIPrefix:              normalizePrefix(v.GetString("api.prefix")),
		StoreDriver:            strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		RedisNamespace:         v.GetString("redis.namespace"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTIssuer:              v.GetString("jwt.issuer"),
		JWTTTL:                 jwtTTL,
		NotificationsChannel:   v.GetString("notifications.channel"),
		StreamKeepAlive:        keepAlive,
		CommentMaxDepth:        v.GetInt("comment.max_depth"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        window,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		LogLevel:               v.GetString("log.level"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StoreDriver {
	case StoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url is required for the redis store")
		}
	case StorePostgres, StoreSQLite:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url is required for the %s store", cfg.StoreDriver)
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 5
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}
