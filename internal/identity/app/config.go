package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/identity/internal/identity/notify"
	"github.com/aussiebroadwan/identity/internal/identity/oauth"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
)

// Mail sinks.
const (
	MailerLog   = "log"
	MailerSMTP  = "smtp"
	MailerKafka = "kafka"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`        // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"` // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	// PublicBaseURL is where this service is reachable from a browser, used
	// to build email verification links.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	// TrustGateway accepts X-Account-Id and friends from the upstream gateway.
	TrustGateway bool `env:"TRUST_GATEWAY"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"15m"`

	DatabaseFile string `env:"IDENTITY_DATABASE_FILE" envDefault:"identity.db"`
	PepperFile   string `env:"IDENTITY_PEPPER_FILE" envDefault:"pepper"`

	BootstrapToken string `env:"BOOTSTRAP_TOKEN"`
	TOTPIssuer     string `env:"TOTP_ISSUER" envDefault:"Identity"`

	JWT      JWTConfig      `envPrefix:"JWT_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Profiles ProfilesConfig `envPrefix:"PROFILE_"`

	Naver  oauth.ProviderConfig `envPrefix:"OAUTH_NAVER_"`
	Kakao  oauth.ProviderConfig `envPrefix:"OAUTH_KAKAO_"`
	Google oauth.ProviderConfig `envPrefix:"OAUTH_GOOGLE_"`

	Mailer   string             `env:"MAILER" envDefault:"log"` // log, smtp, kafka
	SMTP     notify.SMTPConfig  `envPrefix:"SMTP_"`
	Kafka    notify.KafkaConfig `envPrefix:"KAFKA_"`
	Subjects notify.Subjects    `envPrefix:"MAIL_SUBJECT_"`

	VerificationTTL time.Duration `env:"VERIFICATION_TTL" envDefault:"10m"`
	SignupGrace     time.Duration `env:"SIGNUP_GRACE" envDefault:"10m"`
	OAuthStateTTL   time.Duration `env:"OAUTH_STATE_TTL" envDefault:"5m"`

	Tracing TracingConfig `envPrefix:"OTEL_"`
}

type JWTConfig struct {
	// Secret is the base64 HS256 key, at least 32 bytes once decoded.
	Secret     string        `env:"SECRET"`
	Issuer     string        `env:"ISSUER" envDefault:"identity"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	Leeway     time.Duration `env:"LEEWAY" envDefault:"30s"`
}

// RedisConfig selects the credential store. An empty Addr keeps tokens in
// process memory, which only suits a single instance in development.
type RedisConfig struct {
	Addr      string        `env:"ADDR"`
	Password  string        `env:"PASSWORD"`
	DB        int           `env:"DB" envDefault:"0"`
	OpTimeout time.Duration `env:"OP_TIMEOUT" envDefault:"500ms"`
}

type ProfilesConfig struct {
	PartnerURL    string        `env:"PARTNER_URL"`
	UserURL       string        `env:"USER_URL"`
	AdminURL      string        `env:"ADMIN_URL"`
	InternalToken string        `env:"INTERNAL_TOKEN"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

type TracingConfig struct {
	Enabled  bool   `env:"ENABLED"`
	Endpoint string `env:"EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads .env outside prod, then the process environment.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		// A missing .env is normal
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the service cannot start without.
func (c Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if key, err := jwtx.DecodeSecret(c.JWT.Secret); err != nil {
		errs = append(errs, fmt.Errorf("JWT_SECRET: %w", err))
	} else if len(key) < jwtx.MinSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must decode to at least %d bytes", jwtx.MinSecretBytes))
	}

	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL %q is not an absolute URL", c.PublicBaseURL))
	}

	for name, base := range map[string]string{
		"PROFILE_PARTNER_URL": c.Profiles.PartnerURL,
		"PROFILE_USER_URL":    c.Profiles.UserURL,
		"PROFILE_ADMIN_URL":   c.Profiles.AdminURL,
	} {
		if base == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	switch strings.ToLower(c.Mailer) {
	case MailerLog:
		if c.Env == "prod" {
			errs = append(errs, errors.New("MAILER=log is not allowed in prod"))
		}
	case MailerSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			errs = append(errs, errors.New("SMTP_HOST and SMTP_FROM are required for MAILER=smtp"))
		}
	case MailerKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for MAILER=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAILER %q", c.Mailer))
	}

	if c.Env == "prod" && c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required in prod"))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}
