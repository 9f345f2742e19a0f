package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	GRPCPort       string `mapstructure:"GRPC_PORT"`
	AppEnv         string `mapstructure:"APP_ENV"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// Session tokens issued by the identity provider.
	SessionJWTKey string `mapstructure:"SESSION_JWT_KEY"`
	SessionJWTAlg string `mapstructure:"SESSION_JWT_ALG"`

	ClerkWebhookSecret  string `mapstructure:"CLERK_WEBHOOK_SECRET"`
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `mapstructure:"CURRENCY"`

	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
}

var keys = []string{
	"PORT",
	"GRPC_PORT",
	"APP_ENV",
	"DATABASE_URL",
	"REDIS_ADDR",
	"ALLOWED_ORIGINS",
	"SESSION_JWT_KEY",
	"SESSION_JWT_ALG",
	"CLERK_WEBHOOK_SECRET",
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"CURRENCY",
	"CLOUDINARY_CLOUD_NAME",
	"CLOUDINARY_API_KEY",
	"CLOUDINARY_API_SECRET",
	"KAFKA_BROKERS",
	"KAFKA_TOPIC",
}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("PORT", ":5000")
	v.SetDefault("GRPC_PORT", ":50051")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_JWT_ALG", "RS256")
	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("KAFKA_TOPIC", "lms.enrollments")

	v.AutomaticEnv()

	// Bind explicitly so values are seen without an app.env file.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

// Validate reports the required settings that are missing. The server must not
// start without them.
func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.SessionJWTKey == "" {
		missing = append(missing, "SESSION_JWT_KEY")
	}
	if c.ClerkWebhookSecret == "" {
		missing = append(missing, "CLERK_WEBHOOK_SECRET")
	}
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.StripeWebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// ImageUploadEnabled is true when all Cloudinary credentials are present.
func (c Config) ImageUploadEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c Config) EventsEnabled() bool {
	return len(c.Brokers()) > 0
}

func (c Config) Brokers() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if t := strings.TrimSpace(o); t != "" {
			out = append(out, t)
		}
	}
	return out
}
