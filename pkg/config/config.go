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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	IdleScan IdleScanConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig seeds the workflow engine's system settings. The values
// become the initial SystemSettings snapshot; admins adjust them at runtime
// through the settings endpoint.
type EngineConfig struct {
	CommissionAmount       float64
	DepositThreshold       float64
	FixedCredit            float64
	ContractExpiryDays     int
	PassportExpiryMinMonth int
	PricingVersion         string
	SettingsCacheTTL       time.Duration
}

// IdleScanConfig controls the background idle-entity sweep.
type IdleScanConfig struct {
	Enabled           bool
	Interval          time.Duration
	LeadThresholdDays int
	AppThresholdDays  int
}

// ExportsConfig toggles statement and payroll report endpoints.
type ExportsConfig struct {
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

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		CommissionAmount:       v.GetFloat64("ENGINE_COMMISSION_AMOUNT"),
		DepositThreshold:       v.GetFloat64("ENGINE_DEPOSIT_THRESHOLD"),
		FixedCredit:            v.GetFloat64("ENGINE_FIXED_CREDIT"),
		ContractExpiryDays:     v.GetInt("ENGINE_CONTRACT_EXPIRY_DAYS"),
		PassportExpiryMinMonth: v.GetInt("ENGINE_PASSPORT_EXPIRY_MIN_MONTHS"),
		PricingVersion:         v.GetString("ENGINE_PRICING_VERSION"),
		SettingsCacheTTL:       parseDuration(v.GetString("ENGINE_SETTINGS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.IdleScan = IdleScanConfig{
		Enabled:           v.GetBool("ENABLE_IDLE_SCAN"),
		Interval:          parseDuration(v.GetString("IDLE_SCAN_INTERVAL"), time.Hour),
		LeadThresholdDays: v.GetInt("IDLE_LEAD_THRESHOLD_DAYS"),
		AppThresholdDays:  v.GetInt("IDLE_APPLICATION_THRESHOLD_DAYS"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

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
	v.SetDefault("DB_NAME", "placement_agency")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_COMMISSION_AMOUNT", 200)
	v.SetDefault("ENGINE_DEPOSIT_THRESHOLD", 750)
	v.SetDefault("ENGINE_FIXED_CREDIT", 250)
	v.SetDefault("ENGINE_CONTRACT_EXPIRY_DAYS", 7)
	v.SetDefault("ENGINE_PASSPORT_EXPIRY_MIN_MONTHS", 6)
	v.SetDefault("ENGINE_PRICING_VERSION", "v1")
	v.SetDefault("ENGINE_SETTINGS_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_IDLE_SCAN", false)
	v.SetDefault("IDLE_SCAN_INTERVAL", "1h")
	v.SetDefault("IDLE_LEAD_THRESHOLD_DAYS", 7)
	v.SetDefault("IDLE_APPLICATION_THRESHOLD_DAYS", 3)

	v.SetDefault("ENABLE_EXPORTS", false)
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
