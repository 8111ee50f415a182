// server/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring config.yaml ---

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type MongoConfig struct {
	URI             string `mapstructure:"uri"`
	DBName          string `mapstructure:"dbName"`
	ConnectTimeout  string `mapstructure:"connectTimeout"`
	ConnectAttempts uint   `mapstructure:"connectAttempts"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// SatelliteConfig holds the upstream EOS and weather endpoints. Keys never live in source.
type SatelliteConfig struct {
	EOSBaseURL     string `mapstructure:"eosBaseURL"`
	EOSAPIKey      string `mapstructure:"eosAPIKey"`
	WeatherBaseURL string `mapstructure:"weatherBaseURL"`
	WeatherAPIKey  string `mapstructure:"weatherAPIKey"`
	Timeout        string `mapstructure:"timeout"`
}

type ReportsConfig struct {
	GenerationDelay string `mapstructure:"generationDelay"`
	PollInterval    string `mapstructure:"pollInterval"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ErrMissingJWTSecret is returned by Validate when no signing secret is set.
var ErrMissingJWTSecret = errors.New("jwt secret is required (set JWT_SECRET)")

// --- Main Config struct ---

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	S3        S3Config        `mapstructure:"s3"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Satellite SatelliteConfig `mapstructure:"satellite"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
}

// LoadConfig reads config.yaml from path (if present) and overrides it with environment variables.
func LoadConfig(path string) (config Config, err error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("env", "development")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "starhawk")
	v.SetDefault("mongo.connectTimeout", "10s")
	v.SetDefault("mongo.connectAttempts", 1)
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("satellite.eosBaseURL", "https://api-connect.eos.com")
	v.SetDefault("satellite.timeout", "30s")
	v.SetDefault("reports.generationDelay", "5s")
	v.SetDefault("reports.pollInterval", "1s")
	v.SetDefault("log.level", "info")

	v.AutomaticEnv()

	// Variable names kept from the original deployment.
	v.BindEnv("env", "NODE_ENV")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("mongo.uri", "MONGODB_URI")
	v.BindEnv("mongo.dbName", "DATABASE_NAME")
	v.BindEnv("mongo.connectAttempts", "MONGO_CONNECT_ATTEMPTS")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("rabbitmq.url", "RABBITMQ_URL")
	v.BindEnv("satellite.eosBaseURL", "EOS_API_URL")
	v.BindEnv("satellite.eosAPIKey", "EOS_API_KEY")
	v.BindEnv("satellite.weatherBaseURL", "WEATHER_API_URL")
	v.BindEnv("satellite.weatherAPIKey", "WEATHER_API_KEY")
	v.BindEnv("reports.generationDelay", "REPORT_GENERATION_DELAY")
	v.BindEnv("reports.pollInterval", "REPORT_POLL_INTERVAL")
	v.BindEnv("admin.email", "ADMIN_EMAIL")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	// If config.yaml is absent, only defaults and env are used.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	// CORS_ALLOWED_ORIGINS comes in as a comma separated list.
	if raw := v.GetString("CORS_ALLOWED_ORIGINS"); raw != "" {
		config.Server.AllowedOrigins = splitList(raw)
	}

	return config, config.Validate()
}

// Validate rejects configurations the server cannot run safely with.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	for name, value := range map[string]string{
		"jwt.expiration":          c.JWT.Expiration,
		"mongo.connectTimeout":    c.Mongo.ConnectTimeout,
		"satellite.timeout":       c.Satellite.Timeout,
		"reports.generationDelay": c.Reports.GenerationDelay,
		"reports.pollInterval":    c.Reports.PollInterval,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}
	return nil
}

// IsDevelopment reports whether raw error details may be returned to clients.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Duration parses a configured duration, falling back when empty or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
