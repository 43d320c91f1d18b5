package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "service mode to run")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidMode     = errors.New("invalid service mode")
)

// Config contains all configuration variables of the application.
type (
	Config struct {
		Mode types.ServiceMode

		Database  DatabaseConfig
		RabbitMQ  RabbitMQConfig
		Services  ServicesConfig
		Auth      AuthConfig
		Tracking  TrackingConfig
		LogLevel  string `env:"LOG_LEVEL" default:"DEBUG"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"hoblink_user"`
		Password string `env:"DATABASE_PASSWORD" default:"hoblink_pass"`
		Database string `env:"DATABASE_DATABASE" default:"hoblink_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	ServicesConfig struct {
		RideService    string `env:"SERVICES_RIDE_SERVICE" default:"3000"`
		DriverService  string `env:"SERVICES_DRIVER_SERVICE" default:"3001"`
		AdminService   string `env:"SERVICES_ADMIN_SERVICE" default:"3004"`
		SessionService string `env:"SERVICES_SESSION_SERVICE" default:"3005"`
	}

	AuthConfig struct {
		AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" default:"168h"`
		JWTSecret       string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`

		// Comma-separated emails that receive the admin role on signup.
		// Admin is never user-settable; everything else is coerced to rider.
		AdminEmails string `env:"AUTH_ADMIN_EMAILS" default:"info@thabodigital.co.za"`

		// Profile rows may be created by an async trigger after signup;
		// reads are retried with backoff up to this budget.
		ProfileReadRetries time.Duration `env:"AUTH_PROFILE_READ_RETRIES" default:"5s"`
	}

	TrackingConfig struct {
		// Tracking points older than this are pruned by the retention job.
		Retention time.Duration `env:"TRACKING_RETENTION" default:"720h"`
		// How often the retention job runs. Zero disables pruning.
		PruneInterval time.Duration `env:"TRACKING_PRUNE_INTERVAL" default:"1h"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

// AdminEmailList splits the configured admin allow-list.
func (c AuthConfig) AdminEmailList() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.TrimSpace(strings.ToLower(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := parseFlags(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	mode := types.ServiceMode(*modeFlag)
	switch mode {
	case types.RideService, types.DriverService, types.AdminService, types.SessionService:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}

	cfg.Mode = mode
	return nil
}
