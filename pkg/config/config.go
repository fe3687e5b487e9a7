package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends.
const (
	StoreBackendRedis = "redis"
	StoreBackendFile  = "file"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store   StoreConfig
	Redis   RedisConfig
	JWT     JWTConfig
	CORS    CORSConfig
	Log     LogConfig
	Admin   AdminConfig
	OTP     OTPConfig
	Catalog CatalogConfig
	Export  ExportConfig
}

// StoreConfig selects the snapshot store backend and the collection keys.
type StoreConfig struct {
	Backend     string
	DataDir     string
	UsersKey    string
	OrdersKey   string
	ProductsKey string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig tunes the admin list views and mutation behaviour.
type AdminConfig struct {
	PageSize         int
	DeleteGraceDelay time.Duration
	NotificationTTL  time.Duration
}

// OTPConfig controls the phone verification codes.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
}

// CatalogConfig points at the remote storefront backend. An empty BaseURL
// switches the service into local-only mode.
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ExportConfig toggles the roster export endpoint.
type ExportConfig struct {
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Backend:     v.GetString("STORE_BACKEND"),
		DataDir:     v.GetString("STORE_DATA_DIR"),
		UsersKey:    v.GetString("STORE_USERS_KEY"),
		OrdersKey:   v.GetString("STORE_ORDERS_KEY"),
		ProductsKey: v.GetString("STORE_PRODUCTS_KEY"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		PageSize:         v.GetInt("ADMIN_PAGE_SIZE"),
		DeleteGraceDelay: parseDuration(v.GetString("ADMIN_DELETE_GRACE_DELAY"), 800*time.Millisecond),
		NotificationTTL:  parseDuration(v.GetString("ADMIN_NOTIFICATION_TTL"), 3*time.Second),
	}

	cfg.OTP = OTPConfig{
		Digits: v.GetInt("OTP_DIGITS"),
		TTL:    parseDuration(v.GetString("OTP_TTL"), 5*time.Minute),
	}

	cfg.Catalog = CatalogConfig{
		BaseURL: strings.TrimRight(v.GetString("CATALOG_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("CATALOG_TIMEOUT"), 10*time.Second),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("STORE_BACKEND", StoreBackendFile)
	v.SetDefault("STORE_DATA_DIR", "./data")
	v.SetDefault("STORE_USERS_KEY", "perfume_users")
	v.SetDefault("STORE_ORDERS_KEY", "perfume_orders")
	v.SetDefault("STORE_PRODUCTS_KEY", "perfume_products")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "perfume-store-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMIN_PAGE_SIZE", 6)
	v.SetDefault("ADMIN_DELETE_GRACE_DELAY", "800ms")
	v.SetDefault("ADMIN_NOTIFICATION_TTL", "3s")

	v.SetDefault("OTP_DIGITS", 6)
	v.SetDefault("OTP_TTL", "5m")

	v.SetDefault("CATALOG_BASE_URL", "")
	v.SetDefault("CATALOG_TIMEOUT", "10s")

	v.SetDefault("ENABLE_EXPORT", true)
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
