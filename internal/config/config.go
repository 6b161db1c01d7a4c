package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	// DeadLetterBucket receives undeliverable events and failed dispatch reports. Empty disables archiving.
	DeadLetterBucket string `env:"S3_DEAD_LETTER_BUCKET"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	Email    Email
	Push     Push
	SNS      SNS
	Redis    Redis
	Kafka    Kafka
	Dispatch Dispatch
	Breaker  Breaker

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string `env:"DYNAMO_TABLE_NOTIFICATIONS" envDefault:"notifications"`
	Unread        string `env:"DYNAMO_TABLE_UNREAD_NOTIFICATIONS" envDefault:"unread_notifications"`
	Connections   string `env:"DYNAMO_TABLE_WEBSOCKET_CONNECTIONS" envDefault:"websocket_connections"`
}

// Email configures the transactional email channel. Postmark is used when
// PostmarkServerToken is set, otherwise mail goes through SMTP.
type Email struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@example.com"`
	TemplateAlias        string `env:"EMAIL_TEMPLATE_ALIAS" envDefault:"new-notification"`
	SMTPHost             string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort             string `env:"SMTP_PORT" envDefault:"1025"`
	SMTPUsername         string `env:"SMTP_USERNAME"`
	SMTPPassword         string `env:"SMTP_PASSWORD"`
}

// Push configures the FCM push channel. An empty credentials path disables push.
type Push struct {
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	ChunkSize               int    `env:"PUSH_CHUNK_SIZE" envDefault:"500"`
}

// SNS configures the SMS channel.
type SNS struct {
	Region  string `env:"SNS_REGION" envDefault:"us-east-1"`
	Enabled bool   `env:"SNS_SMS_ENABLED" envDefault:"false"`
}

// Redis configures the cross-instance socket bus. An empty Addr keeps delivery local.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_PREFIX" envDefault:"ws"`
}

// Kafka configures the event ingress. No brokers means the consumer is not started.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"notification-events"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"notification-fanout"`
}

// Dispatch tunes the fan-out engine.
type Dispatch struct {
	Concurrency int           `env:"DISPATCH_CONCURRENCY" envDefault:"16"`
	CallTimeout time.Duration `env:"DISPATCH_CALL_TIMEOUT" envDefault:"10s"`
	// RealtimeEcho routes each persisted notification to the recipient's live sockets.
	RealtimeEcho bool `env:"DISPATCH_REALTIME_ECHO" envDefault:"true"`
}

// Breaker tunes the circuit breakers guarding push, email, SMS and socket calls.
type Breaker struct {
	MaxFailures uint32        `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	Interval    time.Duration `env:"BREAKER_INTERVAL" envDefault:"60s"`
	Timeout     time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
