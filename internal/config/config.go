package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingKeyID     = errors.New("razorpay key id is not configured")
	ErrMissingKeySecret = errors.New("razorpay key secret is not configured")
	ErrMissingJWTSecret = errors.New("jwt secret is not configured")
)

// Key ids issued for the gateway sandbox carry this prefix.
const TestKeyPrefix = "rzp_test_"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://storefront.db"`

	Razorpay Razorpay `envPrefix:"RAZORPAY_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	JWT      JWT      `envPrefix:"JWT_"`
}

type Razorpay struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID        string `env:"KEY_ID"`
	KeySecret    string `env:"KEY_SECRET"`
	MerchantName string `env:"MERCHANT_NAME" envDefault:"Storefront"`
	Currency     string `env:"CURRENCY" envDefault:"INR"`
}

type Checkout struct {
	SDKTimeout   time.Duration `env:"SDK_TIMEOUT" envDefault:"10s"`
	ModalTimeout time.Duration `env:"MODAL_TIMEOUT" envDefault:"45s"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"2m"`
	ReceiptTTL   time.Duration `env:"RECEIPT_TTL" envDefault:"24h"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type JWT struct {
	Secret   string `env:"SECRET"`
	Issuer   string `env:"ISSUER" envDefault:"storefront"`
	Audience string `env:"AUDIENCE" envDefault:"storefront-api"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return strings.EqualFold(e.Name, "production")
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	File   string `env:"LOG_FILE"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// PaymentMode selects how payment completions are trusted. It is derived
// once from server-held configuration and never from request content.
type PaymentMode int

const (
	ModeProduction PaymentMode = iota
	ModeTest
)

func (m PaymentMode) String() string {
	if m == ModeTest {
		return "test"
	}
	return "production"
}

// Mode reports ModeTest only for a sandbox key outside the production
// environment. Every other combination, including a sandbox key deployed to
// production, is ModeProduction.
func (r Razorpay) Mode(env Environment) PaymentMode {
	if strings.HasPrefix(r.KeyID, TestKeyPrefix) && !env.IsProduction() {
		return ModeTest
	}
	return ModeProduction
}

func (c *Config) Validate() error {
	if c.Razorpay.KeyID == "" {
		return ErrMissingKeyID
	}
	if c.Razorpay.KeySecret == "" {
		return ErrMissingKeySecret
	}
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.Razorpay.Currency) != 3 {
		return fmt.Errorf("razorpay currency %q must be a 3-letter code", c.Razorpay.Currency)
	}
	if c.Checkout.SDKTimeout <= 0 || c.Checkout.ModalTimeout <= 0 {
		return fmt.Errorf("checkout timeouts must be positive")
	}
	return nil
}
