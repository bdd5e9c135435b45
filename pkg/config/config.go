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

// Store driver selection.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Ingest   IngestConfig
	Chain    ChainConfig
	Fees     FeesConfig
	Admin    AdminConfig
	CORS     CORSConfig
	Log      LogConfig
	Query    QueryConfig
	Exports  ExportsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

// IngestConfig controls where events come from and how the run loop behaves.
type IngestConfig struct {
	StoreDriver string
	StreamKey   string
	StartID     string
	BlockWait   time.Duration
	ReplayPath  string
}

// ChainConfig points at the read-only RPC endpoint used to backfill fields
// the event payloads omit.
type ChainConfig struct {
	RPCURL          string
	Timeout         time.Duration
	CatalogAddr     string
	CertificateAddr string
}

// FeesConfig mirrors the authoritative fee schedule. The values are never
// recomputed from chain state; they must match what the contracts charge.
type FeesConfig struct {
	LicenseBps          int64
	CertificateFirstBps int64
	CertificateNextBps  int64
}

// AdminConfig guards the mutating admin endpoints.
type AdminConfig struct {
	Enabled    bool
	JWTSecret  string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// QueryConfig tunes the read-side API.
type QueryConfig struct {
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// ExportsConfig controls async CSV/PDF export generation.
type ExportsConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Workers         int
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Ingest = IngestConfig{
		StoreDriver: v.GetString("STORE_DRIVER"),
		StreamKey:   v.GetString("INGEST_STREAM_KEY"),
		StartID:     v.GetString("INGEST_START_ID"),
		BlockWait:   parseDuration(v.GetString("INGEST_BLOCK_WAIT"), 5*time.Second),
		ReplayPath:  v.GetString("INGEST_REPLAY_PATH"),
	}

	cfg.Chain = ChainConfig{
		RPCURL:          v.GetString("CHAIN_RPC_URL"),
		Timeout:         parseDuration(v.GetString("CHAIN_RPC_TIMEOUT"), 10*time.Second),
		CatalogAddr:     v.GetString("CHAIN_CATALOG_ADDRESS"),
		CertificateAddr: v.GetString("CHAIN_CERTIFICATE_ADDRESS"),
	}

	cfg.Fees = FeesConfig{
		LicenseBps:          v.GetInt64("FEE_LICENSE_BPS"),
		CertificateFirstBps: v.GetInt64("FEE_CERTIFICATE_FIRST_BPS"),
		CertificateNextBps:  v.GetInt64("FEE_CERTIFICATE_NEXT_BPS"),
	}

	cfg.Admin = AdminConfig{
		Enabled:    v.GetBool("ENABLE_ADMIN_API"),
		JWTSecret:  v.GetString("ADMIN_JWT_SECRET"),
		Expiration: parseDuration(v.GetString("ADMIN_JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Query = QueryConfig{
		CacheTTL:        parseDuration(v.GetString("QUERY_CACHE_TTL"), time.Minute),
		DefaultPageSize: v.GetInt("QUERY_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("QUERY_MAX_PAGE_SIZE"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 15*time.Minute),
		Workers:         v.GetInt("EXPORTS_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "indexer")
	v.SetDefault("DB_PASSWORD", "indexer")
	v.SetDefault("DB_NAME", "learnledger")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("INGEST_STREAM_KEY", "ledger:events")
	v.SetDefault("INGEST_START_ID", "0")

	v.SetDefault("FEE_LICENSE_BPS", 200)
	v.SetDefault("FEE_CERTIFICATE_FIRST_BPS", 1000)
	v.SetDefault("FEE_CERTIFICATE_NEXT_BPS", 200)

	v.SetDefault("ENABLE_ADMIN_API", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("QUERY_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("QUERY_MAX_PAGE_SIZE", 100)

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_WORKERS", 1)
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
