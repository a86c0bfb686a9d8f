package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
// It is validated once at startup and injected into the components that
// need it; business logic never reads ambient environment state.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	JWTSecret   string `usage:"HS256 secret for admin bearer tokens" flag:"jwt-secret"`
	Razorpay    RazorpayConfig
	Email       EmailConfig
	Images      ImagesConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RazorpayConfig holds the payment gateway key pair. The key id is public
// (handed to the browser checkout widget); the secret signs callbacks.
type RazorpayConfig struct {
	KeyID     string `usage:"Razorpay key id" flag:"razorpay-key-id"`
	KeySecret string `usage:"Razorpay key secret" flag:"razorpay-key-secret"`
}

// EmailConfig holds the SendGrid sender identity.
type EmailConfig struct {
	SendGridAPIKey string `usage:"SendGrid API key" flag:"sendgrid-api-key"`
	FromName       string `default:"Ambarika" usage:"Confirmation email sender name"`
	FromAddress    string `usage:"Confirmation email sender address" flag:"email-from"`
}

// ImagesConfig controls S3 presigned URLs for product images. When Bucket
// is empty, stored image URLs are served unchanged.
type ImagesConfig struct {
	Bucket  string        `usage:"S3 bucket holding product images"`
	Region  string        `default:"ap-south-1" usage:"S3 bucket region"`
	BaseURL string        `usage:"Public URL prefix stored in product rows" flag:"images-base-url"`
	SignTTL time.Duration `default:"1h" usage:"Signed URL lifetime" flag:"images-sign-ttl"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch {
	case cfg.DatabaseURL == "":
		return nil, errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	case cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "":
		return nil, errors.New("Razorpay credentials are required: set STORE_RAZORPAY_KEY_ID and STORE_RAZORPAY_KEY_SECRET")
	case cfg.JWTSecret == "":
		return nil, errors.New("JWT secret is required: set STORE_JWT_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
