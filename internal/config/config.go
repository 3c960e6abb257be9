package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	S3       S3Config
	JWT      JWTConfig
	SMTP     SMTPConfig
	Firebase FirebaseConfig
	Kafka    KafkaConfig
	OTEL     OTELConfig
	Jobs     JobsConfig
	Limits   LimitsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	MaxUploadSizeMB int64         `env:"MAX_UPLOAD_SIZE_MB" envDefault:"5"`
	MaxVideoSizeMB  int64         `env:"MAX_VIDEO_SIZE_MB" envDefault:"50"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"10m"`
	AllowOrigins    string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGODB_DATABASE" envDefault:"trackhub"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
}

// S3Config holds object storage configuration for media files
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT_URL" envDefault:"http://localhost:8333"`
	Region          string `env:"AWS_S3_REGION_NAME" envDefault:"ru-central1"`
	Bucket          string `env:"AWS_STORAGE_BUCKET_NAME" envDefault:"trackhub"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:"any"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:"any"`
	// PublicURL prefixes object keys in API responses
	PublicURL   string `env:"AWS_S3_GET_IMAGE_DOMAIN"`
	MediaPrefix string `env:"AWS_S3_MEDIA_PREFIX" envDefault:"media"`
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret             string        `env:"JWT_SECRET"`
	Issuer             string        `env:"JWT_ISSUER" envDefault:"trackhub"`
	AccessTokenExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"5m"`
	RefreshTokenExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"720h"`
	EmailTokenExpiry   time.Duration `env:"JWT_EMAIL_TOKEN_EXPIRY" envDefault:"24h"`
	VerifyLinkBase     string        `env:"EMAIL_VERIFY_LINK_BASE" envDefault:"TrackHub://verify-email?token="`
}

// SMTPConfig holds outgoing mail configuration. An empty host disables mail.
type SMTPConfig struct {
	Host     string `env:"EMAIL_HOST"`
	Port     int    `env:"EMAIL_PORT" envDefault:"465"`
	UseSSL   bool   `env:"EMAIL_USE_SSL" envDefault:"true"`
	Username string `env:"EMAIL_HOST_USER"`
	Password string `env:"EMAIL_HOST_PASSWORD"`
	From     string `env:"DEFAULT_FROM_EMAIL"`
}

// FirebaseConfig holds Firebase Admin SDK configuration. Social login is
// disabled while ProjectID is empty.
type FirebaseConfig struct {
	ProjectID   string `env:"FIREBASE_PROJECT_ID"`
	PrivateKey  string `env:"FIREBASE_PRIVATE_KEY"` // Base64 encoded
	ClientEmail string `env:"FIREBASE_CLIENT_EMAIL"`
}

// KafkaConfig holds the domain event sink. No brokers means events are
// only logged.
type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	TopicPrefix string   `env:"KAFKA_TOPIC_PREFIX" envDefault:"trackhub"`
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint       string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	InstanceID     string  `env:"OTEL_INSTANCE_ID"`
	Token          string  `env:"OTEL_TOKEN"`
	ServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"trackhub-api"`
	ServiceVersion string  `env:"OTEL_SERVICE_VERSION" envDefault:"dev"`
	Environment    string  `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	SampleRatio    float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// JobsConfig holds the cron schedules of background jobs
type JobsConfig struct {
	Enabled           bool   `env:"JOBS_ENABLED" envDefault:"true"`
	ExperienceSpec    string `env:"JOBS_EXPERIENCE_SPEC" envDefault:"0 3 * * *"`
	TokenPurgeSpec    string `env:"JOBS_TOKEN_PURGE_SPEC" envDefault:"@hourly"`
	OrphanPurgeSpec   string `env:"JOBS_ORPHAN_PURGE_SPEC" envDefault:"30 3 * * *"`
	RatingRefreshSpec string `env:"JOBS_RATING_REFRESH_SPEC" envDefault:"0 4 * * 0"`
}

// LimitsConfig holds the default per-user content limits
type LimitsConfig struct {
	Workouts  int `env:"LIMIT_WORKOUTS" envDefault:"100"`
	Exercises int `env:"LIMIT_EXERCISES" envDefault:"200"`
	Plans     int `env:"LIMIT_WEEKLY_PLANS" envDefault:"50"`
}

// LogConfig holds structured logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse reads the environment without loading .env or validating
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.AccessTokenExpiry <= 0 || c.JWT.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}
	if c.Firebase.ProjectID != "" && (c.Firebase.PrivateKey == "" || c.Firebase.ClientEmail == "") {
		return fmt.Errorf("FIREBASE_PRIVATE_KEY and FIREBASE_CLIENT_EMAIL are required when FIREBASE_PROJECT_ID is set")
	}
	if c.Limits.Workouts <= 0 || c.Limits.Exercises <= 0 || c.Limits.Plans <= 0 {
		return fmt.Errorf("content limits must be positive")
	}
	return nil
}

// PublicBase returns the base used to build media links
func (c S3Config) PublicBase() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return c.Endpoint + "/" + c.Bucket
}
